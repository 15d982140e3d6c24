package domain

import "time"

// MemberRole is a member's role within one workspace.
type MemberRole string

const (
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

// Valid reports whether r is a known role.
func (r MemberRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Member is a user's role-bearing association with one workspace. Name and
// email are denormalized display data captured when the member joins; the
// identity itself lives outside this service.
type Member struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspaceId"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Role        MemberRole `json:"role"`
	CreatedAt   time.Time  `json:"createdAt"`
}
