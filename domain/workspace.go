package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const inviteCodeLength = 10

// Workspace is the top-level tenant container for projects, members and tasks.
type Workspace struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"ownerId"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	InviteCode string    `json:"inviteCode"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Project groups tasks inside one workspace.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WorkspaceID string    `json:"workspaceId"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewInviteCode returns an opaque invite token. Codes are compared with an
// exact, case-sensitive match and never expire; rotation is the only way to
// invalidate one.
func NewInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:inviteCodeLength])
}
