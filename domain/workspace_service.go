package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// WorkspaceService owns workspace and project lifecycle. Deleting a workspace
// cascades members, projects and tasks; deleting a project cascades its
// tasks. Orphaned rows in a workspace-partitioned table are unreachable, so
// cascade rather than orphan or reject.
type WorkspaceService struct {
	workspaces WorkspaceStore
	members    MemberStore
	projects   ProjectStore
	tasks      TaskStore
	guard      *Guard
	locks      *KeyedLocks
	now        Clock
}

// NewWorkspaceService creates a WorkspaceService.
func NewWorkspaceService(workspaces WorkspaceStore, members MemberStore, projects ProjectStore, tasks TaskStore, guard *Guard, locks *KeyedLocks) *WorkspaceService {
	return &WorkspaceService{workspaces: workspaces, members: members, projects: projects, tasks: tasks, guard: guard, locks: locks, now: time.Now}
}

// Create provisions a workspace with a fresh invite code and makes the
// creator its first ADMIN member.
func (s *WorkspaceService) Create(ctx context.Context, userID, userName, userEmail, name, imageURL string) (*Workspace, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ValidationError{Field: "name", Reason: "required"}
	}

	now := s.now().UTC()
	ws := Workspace{
		ID:         uuid.NewString(),
		Name:       name,
		OwnerID:    userID,
		ImageURL:   imageURL,
		InviteCode: NewInviteCode(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.workspaces.InsertWorkspace(ctx, ws); err != nil {
		return nil, err
	}

	admin := Member{
		ID:          uuid.NewString(),
		WorkspaceID: ws.ID,
		UserID:      userID,
		Name:        userName,
		Email:       userEmail,
		Role:        RoleAdmin,
		CreatedAt:   now,
	}
	if err := s.members.InsertMember(ctx, admin); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"workspace": ws.ID, "owner": userID}).Info("workspace created")
	return &ws, nil
}

// ListForUser returns every workspace the user belongs to, resolved through
// their membership records.
func (s *WorkspaceService) ListForUser(ctx context.Context, userID string) ([]Workspace, error) {
	memberships, err := s.members.ListMembershipsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []Workspace{}, nil
	}
	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.WorkspaceID
	}
	return s.workspaces.ListWorkspaces(ctx, ids)
}

// Get returns one workspace, gated on membership.
func (s *WorkspaceService) Get(ctx context.Context, userID, workspaceID string) (*Workspace, error) {
	if _, err := s.guard.ResolveMember(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	ws, err := s.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, ErrNotFound
	}
	return ws, nil
}

// Update renames a workspace or swaps its image. Admin only.
func (s *WorkspaceService) Update(ctx context.Context, userID, workspaceID string, name, imageURL *string) (*Workspace, error) {
	ws, err := s.requireAdmin(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, ValidationError{Field: "name", Reason: "required"}
		}
		ws.Name = *name
	}
	if imageURL != nil {
		ws.ImageURL = *imageURL
	}
	ws.UpdatedAt = s.now().UTC()

	if err := s.workspaces.UpdateWorkspace(ctx, *ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// Delete removes a workspace and everything it owns. Admin only.
func (s *WorkspaceService) Delete(ctx context.Context, userID, workspaceID string) error {
	if _, err := s.requireAdmin(ctx, userID, workspaceID); err != nil {
		return err
	}

	release := s.locks.Acquire(workspaceID)
	defer release()

	if err := s.tasks.DeleteWorkspaceTasks(ctx, workspaceID); err != nil {
		return err
	}
	if err := s.projects.DeleteWorkspaceProjects(ctx, workspaceID); err != nil {
		return err
	}
	if err := s.members.DeleteWorkspaceMembers(ctx, workspaceID); err != nil {
		return err
	}
	if err := s.workspaces.DeleteWorkspace(ctx, workspaceID); err != nil {
		return err
	}

	log.WithField("workspace", workspaceID).Info("workspace deleted")
	return nil
}

// ResetInviteCode rotates the invite code, invalidating the previous one.
// Admin only.
func (s *WorkspaceService) ResetInviteCode(ctx context.Context, userID, workspaceID string) (*Workspace, error) {
	ws, err := s.requireAdmin(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}

	ws.InviteCode = NewInviteCode()
	ws.UpdatedAt = s.now().UTC()
	if err := s.workspaces.UpdateWorkspace(ctx, *ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// CreateProject adds a project to a workspace, gated on membership.
func (s *WorkspaceService) CreateProject(ctx context.Context, userID, workspaceID, name, imageURL string) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ValidationError{Field: "name", Reason: "required"}
	}
	if _, err := s.guard.ResolveMember(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := Project{
		ID:          uuid.NewString(),
		Name:        name,
		WorkspaceID: workspaceID,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.InsertProject(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns a workspace's projects, oldest first.
func (s *WorkspaceService) ListProjects(ctx context.Context, userID, workspaceID string) ([]Project, error) {
	if _, err := s.guard.ResolveMember(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	return s.projects.ListProjects(ctx, workspaceID)
}

// UpdateProject renames a project or swaps its image, gated on membership.
func (s *WorkspaceService) UpdateProject(ctx context.Context, userID, projectID string, name, imageURL *string) (*Project, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if _, err := s.guard.ResolveMember(ctx, p.WorkspaceID, userID); err != nil {
		return nil, err
	}

	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, ValidationError{Field: "name", Reason: "required"}
		}
		p.Name = *name
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.projects.UpdateProject(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes a project and its tasks, gated on membership.
func (s *WorkspaceService) DeleteProject(ctx context.Context, userID, projectID string) error {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if _, err := s.guard.ResolveMember(ctx, p.WorkspaceID, userID); err != nil {
		return err
	}

	release := s.locks.Acquire(p.WorkspaceID)
	defer release()

	if err := s.tasks.DeleteProjectTasks(ctx, p.WorkspaceID, p.ID); err != nil {
		return err
	}
	return s.projects.DeleteProject(ctx, p.WorkspaceID, p.ID)
}

func (s *WorkspaceService) requireAdmin(ctx context.Context, userID, workspaceID string) (*Workspace, error) {
	member, err := s.guard.ResolveMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}
	ws, err := s.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, ErrNotFound
	}
	return ws, nil
}
