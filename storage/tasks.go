package storage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"taskboard-api/domain"
)

// GetTask retrieves a task by id, scanning row keys across workspace
// partitions.
func (s *Storage) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var found *domain.Task
	err := queryEntities(ctx, s.taskTable, rowFilter(id), func(raw []byte) error {
		var ent taskEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		t := ent.toDomain()
		found = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// GetTasks retrieves the tasks for the given ids. Missing ids are skipped;
// callers decide whether an incomplete resolution is an error.
func (s *Storage) GetTasks(ctx context.Context, ids []string) ([]domain.Task, error) {
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}
	clauses := make([]string, len(ids))
	for i, id := range ids {
		clauses[i] = rowFilter(id)
	}
	out := []domain.Task{}
	err := queryEntities(ctx, s.taskTable, strings.Join(clauses, " or "), func(raw []byte) error {
		var ent taskEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		out = append(out, ent.toDomain())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryTasks lists a workspace's tasks matching the filter. The partition and
// any status bound go into the table query; the remaining bounds are applied
// client side because the table service cannot compare the string-encoded
// timestamps or do substring search.
func (s *Storage) QueryTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	filter := partitionFilter(f.WorkspaceID)
	if f.Status != nil {
		filter += " and Status eq '" + escapeODataString(string(*f.Status)) + "'"
	}
	if f.ProjectID != "" {
		filter += " and ProjectId eq '" + escapeODataString(f.ProjectID) + "'"
	}
	if f.AssigneeID != "" {
		filter += " and AssigneeId eq '" + escapeODataString(f.AssigneeID) + "'"
	}

	out := []domain.Task{}
	err := queryEntities(ctx, s.taskTable, filter, func(raw []byte) error {
		var ent taskEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		t := ent.toDomain()
		if f.DueDate != nil && !sameDay(t.DueDate, *f.DueDate) {
			return nil
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Search)) {
			return nil
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountTasks counts the workspace's tasks satisfying the filter. Equality
// bounds narrow the table query; time bounds apply client side.
func (s *Storage) CountTasks(ctx context.Context, f domain.TaskCountFilter) (int, error) {
	filter := partitionFilter(f.WorkspaceID)
	if f.ProjectID != "" {
		filter += " and ProjectId eq '" + escapeODataString(f.ProjectID) + "'"
	}
	if f.Status != nil {
		filter += " and Status eq '" + escapeODataString(string(*f.Status)) + "'"
	}

	n := 0
	err := queryEntities(ctx, s.taskTable, filter, func(raw []byte) error {
		var ent taskEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		if f.Matches(ent.toDomain()) {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Storage) InsertTask(ctx context.Context, t domain.Task) error {
	return s.insertEntity(ctx, s.taskTable, toTaskEntity(t))
}

func (s *Storage) UpdateTask(ctx context.Context, t domain.Task) error {
	return s.updateEntity(ctx, s.taskTable, toTaskEntity(t))
}

func (s *Storage) DeleteTask(ctx context.Context, workspaceID, id string) error {
	return s.deleteEntity(ctx, s.taskTable, workspaceID, id)
}

func (s *Storage) DeleteWorkspaceTasks(ctx context.Context, workspaceID string) error {
	return s.deletePartition(ctx, s.taskTable, workspaceID)
}

// DeleteProjectTasks removes every task of one project.
func (s *Storage) DeleteProjectTasks(ctx context.Context, workspaceID, projectID string) error {
	tasks, err := s.QueryTasks(ctx, domain.TaskFilter{WorkspaceID: workspaceID, ProjectID: projectID})
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.DeleteTask(ctx, workspaceID, t.ID); err != nil {
			return err
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
