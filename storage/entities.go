package storage

import (
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskboard-api/domain"
)

// Timestamps are stored as RFC 3339 strings. The table service's own
// Timestamp property tracks writes, not domain time.
const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// escapeODataString doubles single quotes per the OData string literal rules.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func partitionFilter(pk string) string {
	return "PartitionKey eq '" + escapeODataString(pk) + "'"
}

func rowFilter(rk string) string {
	return "RowKey eq '" + escapeODataString(rk) + "'"
}

type workspaceEntity struct {
	aztables.Entity
	Name       string `json:"Name"`
	OwnerID    string `json:"OwnerId"`
	ImageURL   string `json:"ImageUrl"`
	InviteCode string `json:"InviteCode"`
	CreatedAt  string `json:"CreatedAt"`
	UpdatedAt  string `json:"UpdatedAt"`
}

func toWorkspaceEntity(ws domain.Workspace) workspaceEntity {
	return workspaceEntity{
		Entity:     aztables.Entity{PartitionKey: ws.ID, RowKey: ws.ID},
		Name:       ws.Name,
		OwnerID:    ws.OwnerID,
		ImageURL:   ws.ImageURL,
		InviteCode: ws.InviteCode,
		CreatedAt:  formatTime(ws.CreatedAt),
		UpdatedAt:  formatTime(ws.UpdatedAt),
	}
}

func (e workspaceEntity) toDomain() domain.Workspace {
	return domain.Workspace{
		ID:         e.RowKey,
		Name:       e.Name,
		OwnerID:    e.OwnerID,
		ImageURL:   e.ImageURL,
		InviteCode: e.InviteCode,
		CreatedAt:  parseTime(e.CreatedAt),
		UpdatedAt:  parseTime(e.UpdatedAt),
	}
}

type memberEntity struct {
	aztables.Entity
	UserID    string `json:"UserId"`
	Name      string `json:"Name"`
	Email     string `json:"Email"`
	Role      string `json:"Role"`
	CreatedAt string `json:"CreatedAt"`
}

func toMemberEntity(m domain.Member) memberEntity {
	return memberEntity{
		Entity:    aztables.Entity{PartitionKey: m.WorkspaceID, RowKey: m.ID},
		UserID:    m.UserID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      string(m.Role),
		CreatedAt: formatTime(m.CreatedAt),
	}
}

func (e memberEntity) toDomain() domain.Member {
	return domain.Member{
		ID:          e.RowKey,
		WorkspaceID: e.PartitionKey,
		UserID:      e.UserID,
		Name:        e.Name,
		Email:       e.Email,
		Role:        domain.MemberRole(e.Role),
		CreatedAt:   parseTime(e.CreatedAt),
	}
}

type projectEntity struct {
	aztables.Entity
	Name      string `json:"Name"`
	ImageURL  string `json:"ImageUrl"`
	CreatedAt string `json:"CreatedAt"`
	UpdatedAt string `json:"UpdatedAt"`
}

func toProjectEntity(p domain.Project) projectEntity {
	return projectEntity{
		Entity:    aztables.Entity{PartitionKey: p.WorkspaceID, RowKey: p.ID},
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func (e projectEntity) toDomain() domain.Project {
	return domain.Project{
		ID:          e.RowKey,
		WorkspaceID: e.PartitionKey,
		Name:        e.Name,
		ImageURL:    e.ImageURL,
		CreatedAt:   parseTime(e.CreatedAt),
		UpdatedAt:   parseTime(e.UpdatedAt),
	}
}

type taskEntity struct {
	aztables.Entity
	Name        string `json:"Name"`
	ProjectID   string `json:"ProjectId"`
	AssigneeID  string `json:"AssigneeId"`
	Status      string `json:"Status"`
	Position    int    `json:"Position"`
	DueDate     string `json:"DueDate"`
	Description string `json:"Description"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

func toTaskEntity(t domain.Task) taskEntity {
	return taskEntity{
		Entity:      aztables.Entity{PartitionKey: t.WorkspaceID, RowKey: t.ID},
		Name:        t.Name,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		Status:      string(t.Status),
		Position:    t.Position,
		DueDate:     formatTime(t.DueDate),
		Description: t.Description,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func (e taskEntity) toDomain() domain.Task {
	return domain.Task{
		ID:          e.RowKey,
		WorkspaceID: e.PartitionKey,
		Name:        e.Name,
		ProjectID:   e.ProjectID,
		AssigneeID:  e.AssigneeID,
		Status:      domain.TaskStatus(e.Status),
		Position:    e.Position,
		DueDate:     parseTime(e.DueDate),
		Description: e.Description,
		CreatedAt:   parseTime(e.CreatedAt),
		UpdatedAt:   parseTime(e.UpdatedAt),
	}
}
