package storage

import (
	"context"
	"encoding/json"
	"sort"

	"taskboard-api/domain"
)

// GetWorkspace retrieves a workspace if present.
func (s *Storage) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	var ent workspaceEntity
	ok, err := s.getEntity(ctx, s.workspaceTable, id, id, &ent)
	if err != nil || !ok {
		return nil, err
	}
	ws := ent.toDomain()
	return &ws, nil
}

// ListWorkspaces retrieves the workspaces for the given ids, skipping ids
// that no longer resolve.
func (s *Storage) ListWorkspaces(ctx context.Context, ids []string) ([]domain.Workspace, error) {
	out := make([]domain.Workspace, 0, len(ids))
	for _, id := range ids {
		ws, err := s.GetWorkspace(ctx, id)
		if err != nil {
			return nil, err
		}
		if ws != nil {
			out = append(out, *ws)
		}
	}
	return out, nil
}

func (s *Storage) InsertWorkspace(ctx context.Context, ws domain.Workspace) error {
	return s.insertEntity(ctx, s.workspaceTable, toWorkspaceEntity(ws))
}

func (s *Storage) UpdateWorkspace(ctx context.Context, ws domain.Workspace) error {
	return s.updateEntity(ctx, s.workspaceTable, toWorkspaceEntity(ws))
}

func (s *Storage) DeleteWorkspace(ctx context.Context, id string) error {
	return s.deleteEntity(ctx, s.workspaceTable, id, id)
}

// GetProject retrieves a project by id. Projects partition on their
// workspace, so this is a row-key scan across partitions.
func (s *Storage) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var found *domain.Project
	err := queryEntities(ctx, s.projectTable, rowFilter(id), func(raw []byte) error {
		var ent projectEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		p := ent.toDomain()
		found = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListProjects retrieves a workspace's projects, oldest first.
func (s *Storage) ListProjects(ctx context.Context, workspaceID string) ([]domain.Project, error) {
	out := []domain.Project{}
	err := queryEntities(ctx, s.projectTable, partitionFilter(workspaceID), func(raw []byte) error {
		var ent projectEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		out = append(out, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Storage) InsertProject(ctx context.Context, p domain.Project) error {
	return s.insertEntity(ctx, s.projectTable, toProjectEntity(p))
}

func (s *Storage) UpdateProject(ctx context.Context, p domain.Project) error {
	return s.updateEntity(ctx, s.projectTable, toProjectEntity(p))
}

func (s *Storage) DeleteProject(ctx context.Context, workspaceID, id string) error {
	return s.deleteEntity(ctx, s.projectTable, workspaceID, id)
}

func (s *Storage) DeleteWorkspaceProjects(ctx context.Context, workspaceID string) error {
	return s.deletePartition(ctx, s.projectTable, workspaceID)
}
