package domain

import "time"

// TaskStatus identifies the board column a task lives in. The set is ordered
// for presentation but carries no numeric rank.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "BACKLOG"
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusDone       TaskStatus = "DONE"
)

// TaskStatuses lists every valid status in board order.
var TaskStatuses = []TaskStatus{StatusBacklog, StatusTodo, StatusInProgress, StatusInReview, StatusDone}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

// Task is a single board item. Position orders tasks within their
// (workspace, status) column; it is not globally unique.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	WorkspaceID string     `json:"workspaceId"`
	ProjectID   string     `json:"projectId"`
	AssigneeID  string     `json:"assigneeId"`
	Status      TaskStatus `json:"status"`
	Position    int        `json:"position"`
	DueDate     time.Time  `json:"dueDate"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskDetails is a task populated with display data for its project and
// assignee, as consumed by the board and task pages.
type TaskDetails struct {
	Task
	Project  *Project `json:"project,omitempty"`
	Assignee *Member  `json:"assignee,omitempty"`
}

// TaskFilter narrows a workspace task listing. Zero values mean "no filter";
// DueDate matches tasks due on the same calendar day (UTC).
type TaskFilter struct {
	WorkspaceID string
	ProjectID   string
	AssigneeID  string
	Status      *TaskStatus
	DueDate     *time.Time
	Search      string
}

// TaskCountFilter selects tasks for a single analytics count. Time bounds
// follow the aggregation windows: CreatedAfter is exclusive, CreatedUpTo
// inclusive, and likewise for the due-date pair. DueBefore is a strict upper
// bound used for overdue counting.
type TaskCountFilter struct {
	WorkspaceID  string
	ProjectID    string
	AssigneeID   string
	Status       *TaskStatus
	NotStatus    *TaskStatus
	CreatedAfter *time.Time
	CreatedUpTo  *time.Time
	DueAfter     *time.Time
	DueUpTo      *time.Time
	DueBefore    *time.Time
}

// Matches reports whether t satisfies every set bound of the filter. Storage
// backends push the equality filters into their query and apply the rest
// through this method.
func (f TaskCountFilter) Matches(t Task) bool {
	if f.WorkspaceID != "" && t.WorkspaceID != f.WorkspaceID {
		return false
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.AssigneeID != "" && t.AssigneeID != f.AssigneeID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.NotStatus != nil && t.Status == *f.NotStatus {
		return false
	}
	if f.CreatedAfter != nil && !t.CreatedAt.After(*f.CreatedAfter) {
		return false
	}
	if f.CreatedUpTo != nil && t.CreatedAt.After(*f.CreatedUpTo) {
		return false
	}
	if f.DueAfter != nil && !t.DueDate.After(*f.DueAfter) {
		return false
	}
	if f.DueUpTo != nil && t.DueDate.After(*f.DueUpTo) {
		return false
	}
	if f.DueBefore != nil && !t.DueDate.Before(*f.DueBefore) {
		return false
	}
	return true
}
