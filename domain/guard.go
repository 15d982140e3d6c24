package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Guard resolves workspace memberships and enforces the membership mutation
// invariants. It is consulted before any mutating or analytics operation.
//
// The last-admin and last-member checks are read-then-write: the membership
// snapshot and the following write happen under the workspace's lock, so two
// concurrent removals cannot both observe "more than one member" and strand
// an empty workspace.
type Guard struct {
	workspaces WorkspaceStore
	members    MemberStore
	locks      *KeyedLocks
	sink       EventSink
	now        Clock
}

// NewGuard creates a Guard. sink may be nil.
func NewGuard(workspaces WorkspaceStore, members MemberStore, locks *KeyedLocks, sink EventSink) *Guard {
	if sink == nil {
		sink = NopSink{}
	}
	return &Guard{workspaces: workspaces, members: members, locks: locks, sink: sink, now: time.Now}
}

// ResolveMember returns the caller's membership in the workspace, or
// ErrUnauthorized when none exists. Fails closed: a missing record never
// grants read access.
func (g *Guard) ResolveMember(ctx context.Context, workspaceID, userID string) (*Member, error) {
	m, err := g.members.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrUnauthorized
	}
	return m, nil
}

// JoinWorkspace admits userID into the workspace as a MEMBER when the
// supplied invite code exactly matches the workspace's current code.
func (g *Guard) JoinWorkspace(ctx context.Context, workspaceID, userID, name, email, code string) (*Member, error) {
	release := g.locks.Acquire(workspaceID)
	defer release()

	ws, err := g.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, ErrNotFound
	}

	existing, err := g.members.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}
	if code != ws.InviteCode {
		return nil, ErrInvalidInviteCode
	}

	m := Member{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Name:        name,
		Email:       email,
		Role:        RoleMember,
		CreatedAt:   g.now().UTC(),
	}
	if err := g.members.InsertMember(ctx, m); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"workspace": workspaceID, "member": m.ID}).Info("member joined workspace")
	g.sink.Publish(Event{Type: EventMemberJoined, WorkspaceID: workspaceID, EntityID: m.ID, ActorID: userID})
	return &m, nil
}

// RemoveMember deletes a membership. Admins may remove anyone; a member may
// remove only themselves. A workspace always keeps at least one member, and
// at least one admin while other members remain.
func (g *Guard) RemoveMember(ctx context.Context, callerUserID, memberID string) error {
	target, err := g.members.GetMemberByID(ctx, memberID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}

	release := g.locks.Acquire(target.WorkspaceID)
	defer release()

	// Re-read under the lock so the count check and the delete observe the
	// same membership snapshot.
	all, err := g.members.ListMembers(ctx, target.WorkspaceID)
	if err != nil {
		return err
	}
	caller, err := g.ResolveMember(ctx, target.WorkspaceID, callerUserID)
	if err != nil {
		return err
	}

	if len(all) == 1 {
		return ErrLastMember
	}
	if caller.Role != RoleAdmin && caller.ID != target.ID {
		return ErrUnauthorized
	}
	if target.Role == RoleAdmin && countRole(all, RoleAdmin) == 1 {
		return ErrLastAdmin
	}

	if err := g.members.DeleteMember(ctx, target.WorkspaceID, target.ID); err != nil {
		return err
	}

	log.WithFields(log.Fields{"workspace": target.WorkspaceID, "member": target.ID}).Info("member removed")
	g.sink.Publish(Event{Type: EventMemberRemoved, WorkspaceID: target.WorkspaceID, EntityID: target.ID, ActorID: callerUserID})
	return nil
}

// ChangeRole updates a member's role. Demoting the workspace's only admin is
// rejected; a two-admin workspace may demote either one.
func (g *Guard) ChangeRole(ctx context.Context, callerUserID, memberID string, newRole MemberRole) (*Member, error) {
	if !newRole.Valid() {
		return nil, ValidationError{Field: "role", Reason: "must be ADMIN or MEMBER"}
	}

	target, err := g.members.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrNotFound
	}

	release := g.locks.Acquire(target.WorkspaceID)
	defer release()

	all, err := g.members.ListMembers(ctx, target.WorkspaceID)
	if err != nil {
		return nil, err
	}
	caller, err := g.ResolveMember(ctx, target.WorkspaceID, callerUserID)
	if err != nil {
		return nil, err
	}

	if caller.Role != RoleAdmin && caller.ID != target.ID {
		return nil, ErrUnauthorized
	}
	if target.Role == RoleAdmin && newRole != RoleAdmin && countRole(all, RoleAdmin) == 1 {
		return nil, ErrLastAdmin
	}

	target.Role = newRole
	if err := g.members.UpdateMember(ctx, *target); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"workspace": target.WorkspaceID, "member": target.ID, "role": newRole}).Info("member role changed")
	g.sink.Publish(Event{Type: EventMemberRoleChanged, WorkspaceID: target.WorkspaceID, EntityID: target.ID, ActorID: callerUserID})
	return target, nil
}

// ListMembers returns the workspace's member directory, gated on the caller's
// own membership.
func (g *Guard) ListMembers(ctx context.Context, callerUserID, workspaceID string) ([]Member, error) {
	if _, err := g.ResolveMember(ctx, workspaceID, callerUserID); err != nil {
		return nil, err
	}
	return g.members.ListMembers(ctx, workspaceID)
}

func countRole(members []Member, role MemberRole) int {
	n := 0
	for _, m := range members {
		if m.Role == role {
			n++
		}
	}
	return n
}
