package domain

import (
	"context"
	"time"
)

// WorkspaceStore persists workspaces. Get returns (nil, nil) when the
// workspace does not exist.
type WorkspaceStore interface {
	GetWorkspace(ctx context.Context, id string) (*Workspace, error)
	ListWorkspaces(ctx context.Context, ids []string) ([]Workspace, error)
	InsertWorkspace(ctx context.Context, ws Workspace) error
	UpdateWorkspace(ctx context.Context, ws Workspace) error
	DeleteWorkspace(ctx context.Context, id string) error
}

// MemberStore persists workspace memberships. Lookups return (nil, nil) when
// no record exists; callers translate that to ErrUnauthorized or ErrNotFound.
type MemberStore interface {
	GetMember(ctx context.Context, workspaceID, userID string) (*Member, error)
	GetMemberByID(ctx context.Context, memberID string) (*Member, error)
	ListMembers(ctx context.Context, workspaceID string) ([]Member, error)
	ListMembershipsForUser(ctx context.Context, userID string) ([]Member, error)
	InsertMember(ctx context.Context, m Member) error
	UpdateMember(ctx context.Context, m Member) error
	DeleteMember(ctx context.Context, workspaceID, memberID string) error
	DeleteWorkspaceMembers(ctx context.Context, workspaceID string) error
}

// ProjectStore persists projects.
type ProjectStore interface {
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context, workspaceID string) ([]Project, error)
	InsertProject(ctx context.Context, p Project) error
	UpdateProject(ctx context.Context, p Project) error
	DeleteProject(ctx context.Context, workspaceID, id string) error
	DeleteWorkspaceProjects(ctx context.Context, workspaceID string) error
}

// TaskStore persists tasks. The backing table is partitioned by workspace id
// so column scans and workspace-wide queries stay within one partition.
type TaskStore interface {
	GetTask(ctx context.Context, id string) (*Task, error)
	GetTasks(ctx context.Context, ids []string) ([]Task, error)
	QueryTasks(ctx context.Context, f TaskFilter) ([]Task, error)
	CountTasks(ctx context.Context, f TaskCountFilter) (int, error)
	InsertTask(ctx context.Context, t Task) error
	UpdateTask(ctx context.Context, t Task) error
	DeleteTask(ctx context.Context, workspaceID, id string) error
	DeleteWorkspaceTasks(ctx context.Context, workspaceID string) error
	DeleteProjectTasks(ctx context.Context, workspaceID, projectID string) error
}

// Clock abstracts time for services so tests can pin it.
type Clock func() time.Time
