package storage

import (
	"context"
	"encoding/json"
	"sort"

	"taskboard-api/domain"
)

// GetMember retrieves a user's membership in a workspace, nil when none.
func (s *Storage) GetMember(ctx context.Context, workspaceID, userID string) (*domain.Member, error) {
	filter := partitionFilter(workspaceID) + " and UserId eq '" + escapeODataString(userID) + "'"
	var found *domain.Member
	err := queryEntities(ctx, s.memberTable, filter, func(raw []byte) error {
		var ent memberEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		m := ent.toDomain()
		found = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// GetMemberByID retrieves a member by its own id, scanning row keys across
// workspace partitions.
func (s *Storage) GetMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	var found *domain.Member
	err := queryEntities(ctx, s.memberTable, rowFilter(memberID), func(raw []byte) error {
		var ent memberEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		m := ent.toDomain()
		found = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListMembers retrieves a workspace's member directory, oldest first.
func (s *Storage) ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	out := []domain.Member{}
	err := queryEntities(ctx, s.memberTable, partitionFilter(workspaceID), func(raw []byte) error {
		var ent memberEntity
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

// ListMembershipsForUser retrieves every membership a user holds.
func (s *Storage) ListMembershipsForUser(ctx context.Context, userID string) ([]domain.Member, error) {
	filter := "UserId eq '" + escapeODataString(userID) + "'"
	out := []domain.Member{}
	err := queryEntities(ctx, s.memberTable, filter, func(raw []byte) error {
		var ent memberEntity
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

func (s *Storage) InsertMember(ctx context.Context, m domain.Member) error {
	return s.insertEntity(ctx, s.memberTable, toMemberEntity(m))
}

func (s *Storage) UpdateMember(ctx context.Context, m domain.Member) error {
	return s.updateEntity(ctx, s.memberTable, toMemberEntity(m))
}

func (s *Storage) DeleteMember(ctx context.Context, workspaceID, memberID string) error {
	return s.deleteEntity(ctx, s.memberTable, workspaceID, memberID)
}

func (s *Storage) DeleteWorkspaceMembers(ctx context.Context, workspaceID string) error {
	return s.deletePartition(ctx, s.memberTable, workspaceID)
}
