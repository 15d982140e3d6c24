package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateTaskInput carries the caller-supplied fields for a new task. Position
// is always derived by the service, never accepted from the caller.
type CreateTaskInput struct {
	Name        string     `json:"name"`
	WorkspaceID string     `json:"workspaceId"`
	ProjectID   string     `json:"projectId"`
	AssigneeID  string     `json:"assigneeId"`
	Status      TaskStatus `json:"status"`
	DueDate     time.Time  `json:"dueDate"`
	Description string     `json:"description,omitempty"`
}

// UpdateTaskInput is a partial patch; nil fields are left unchanged.
type UpdateTaskInput struct {
	Name        *string     `json:"name"`
	ProjectID   *string     `json:"projectId"`
	AssigneeID  *string     `json:"assigneeId"`
	Status      *TaskStatus `json:"status"`
	DueDate     *time.Time  `json:"dueDate"`
	Description *string     `json:"description"`
}

// ReorderFailure reports one task update that could not be applied during a
// bulk reorder.
type ReorderFailure struct {
	TaskID string `json:"id"`
	Reason string `json:"reason"`
}

// ReorderResult itemizes a bulk reorder so the board can reconcile its
// optimistic in-memory state: applied tasks carry their new positions, failed
// updates carry the reason. Partial application is reported, not rolled back.
type ReorderResult struct {
	Applied []Task           `json:"applied"`
	Failed  []ReorderFailure `json:"failed,omitempty"`
}

// TaskService owns task CRUD and the column ordering engine. Position
// assignment and bulk reorders for one workspace are serialized through the
// shared lock registry; different workspaces proceed concurrently.
type TaskService struct {
	tasks    TaskStore
	projects ProjectStore
	members  MemberStore
	guard    *Guard
	locks    *KeyedLocks
	sink     EventSink
	now      Clock
}

// NewTaskService creates a TaskService. sink may be nil.
func NewTaskService(tasks TaskStore, projects ProjectStore, members MemberStore, guard *Guard, locks *KeyedLocks, sink EventSink) *TaskService {
	if sink == nil {
		sink = NopSink{}
	}
	return &TaskService{tasks: tasks, projects: projects, members: members, guard: guard, locks: locks, sink: sink, now: time.Now}
}

// Create inserts a task at the derived next position of its column. The
// column read and the insert run under the workspace lock so concurrent
// creates cannot derive the same position.
func (s *TaskService) Create(ctx context.Context, userID string, in CreateTaskInput) (*Task, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ValidationError{Field: "name", Reason: "required"}
	}
	if !in.Status.Valid() {
		return nil, ValidationError{Field: "status", Reason: "unknown status"}
	}
	if _, err := s.guard.ResolveMember(ctx, in.WorkspaceID, userID); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(in.WorkspaceID)
	defer release()

	column, err := s.tasks.QueryTasks(ctx, TaskFilter{WorkspaceID: in.WorkspaceID, Status: &in.Status})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := Task{
		ID:          uuid.NewString(),
		Name:        in.Name,
		WorkspaceID: in.WorkspaceID,
		ProjectID:   in.ProjectID,
		AssigneeID:  in.AssigneeID,
		Status:      in.Status,
		Position:    NextPosition(column),
		DueDate:     in.DueDate,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.InsertTask(ctx, t); err != nil {
		return nil, err
	}

	s.sink.Publish(Event{Type: EventTaskCreated, WorkspaceID: t.WorkspaceID, EntityID: t.ID, ActorID: userID})
	return &t, nil
}

// List returns the workspace's tasks matching the filter, newest first,
// populated with project and assignee display data.
func (s *TaskService) List(ctx context.Context, userID string, f TaskFilter) ([]TaskDetails, error) {
	if _, err := s.guard.ResolveMember(ctx, f.WorkspaceID, userID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.QueryTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })

	return s.populate(ctx, f.WorkspaceID, tasks)
}

// Get returns one task with its project and assignee populated.
func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*TaskDetails, error) {
	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if _, err := s.guard.ResolveMember(ctx, t.WorkspaceID, userID); err != nil {
		return nil, err
	}

	details, err := s.populate(ctx, t.WorkspaceID, []Task{*t})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Update applies a partial patch to a task.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, in UpdateTaskInput) (*Task, error) {
	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if _, err := s.guard.ResolveMember(ctx, t.WorkspaceID, userID); err != nil {
		return nil, err
	}

	if in.Status != nil && !in.Status.Valid() {
		return nil, ValidationError{Field: "status", Reason: "unknown status"}
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.ProjectID != nil {
		t.ProjectID = *in.ProjectID
	}
	if in.AssigneeID != nil {
		t.AssigneeID = *in.AssigneeID
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.DueDate != nil {
		t.DueDate = *in.DueDate
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	t.UpdatedAt = s.now().UTC()

	if err := s.tasks.UpdateTask(ctx, *t); err != nil {
		return nil, err
	}

	s.sink.Publish(Event{Type: EventTaskUpdated, WorkspaceID: t.WorkspaceID, EntityID: t.ID, ActorID: userID})
	return t, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}
	if _, err := s.guard.ResolveMember(ctx, t.WorkspaceID, userID); err != nil {
		return err
	}

	if err := s.tasks.DeleteTask(ctx, t.WorkspaceID, t.ID); err != nil {
		return err
	}
	s.sink.Publish(Event{Type: EventTaskDeleted, WorkspaceID: t.WorkspaceID, EntityID: t.ID, ActorID: userID})
	return nil
}

// Move drags a task to index within the column for status, planning either a
// single-task reposition (same column) or a destination column renumber
// (cross-column move), and applies the plan through the reorder path.
func (s *TaskService) Move(ctx context.Context, userID, taskID string, status TaskStatus, index int) (*ReorderResult, error) {
	if !status.Valid() {
		return nil, ValidationError{Field: "status", Reason: "unknown status"}
	}

	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if _, err := s.guard.ResolveMember(ctx, t.WorkspaceID, userID); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(t.WorkspaceID)
	defer release()

	var updates []ReorderUpdate
	if status == t.Status {
		updates = PlanReorder(*t, index)
	} else {
		column, err := s.tasks.QueryTasks(ctx, TaskFilter{WorkspaceID: t.WorkspaceID, Status: &status})
		if err != nil {
			return nil, err
		}
		sort.SliceStable(column, func(i, j int) bool { return column[i].Position < column[j].Position })
		updates = PlanColumnInsert(column, *t, index, status)
	}

	return s.applyReorder(ctx, userID, t.WorkspaceID, updates)
}

// BulkReorder applies a batch of position updates. All referenced tasks must
// resolve to one workspace; a batch spanning two workspaces is rejected
// before any write. Membership is checked once for the whole batch.
func (s *TaskService) BulkReorder(ctx context.Context, userID string, updates []ReorderUpdate) (*ReorderResult, error) {
	if len(updates) == 0 {
		return nil, ValidationError{Field: "tasks", Reason: "required"}
	}
	for _, u := range updates {
		if !u.Status.Valid() {
			return nil, ValidationError{Field: "status", Reason: "unknown status"}
		}
		if err := ValidatePosition(u.Position); err != nil {
			return nil, err
		}
	}

	ids := make([]string, len(updates))
	for i, u := range updates {
		ids[i] = u.TaskID
	}
	referenced, err := s.tasks.GetTasks(ctx, ids)
	if err != nil {
		return nil, err
	}

	workspaces := make(map[string]struct{})
	for _, t := range referenced {
		workspaces[t.WorkspaceID] = struct{}{}
	}
	if len(workspaces) != 1 {
		return nil, ErrCrossWorkspace
	}
	var workspaceID string
	for id := range workspaces {
		workspaceID = id
	}

	if _, err := s.guard.ResolveMember(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(workspaceID)
	defer release()

	return s.applyReorder(ctx, userID, workspaceID, updates)
}

// applyReorder writes each update, collecting per-item outcomes. Callers hold
// the workspace lock.
func (s *TaskService) applyReorder(ctx context.Context, userID, workspaceID string, updates []ReorderUpdate) (*ReorderResult, error) {
	res := &ReorderResult{Applied: make([]Task, 0, len(updates))}
	for _, u := range updates {
		t, err := s.tasks.GetTask(ctx, u.TaskID)
		if err != nil {
			res.Failed = append(res.Failed, ReorderFailure{TaskID: u.TaskID, Reason: err.Error()})
			continue
		}
		if t == nil || t.WorkspaceID != workspaceID {
			res.Failed = append(res.Failed, ReorderFailure{TaskID: u.TaskID, Reason: ErrNotFound.Error()})
			continue
		}
		t.Status = u.Status
		t.Position = u.Position
		t.UpdatedAt = s.now().UTC()
		if err := s.tasks.UpdateTask(ctx, *t); err != nil {
			res.Failed = append(res.Failed, ReorderFailure{TaskID: u.TaskID, Reason: err.Error()})
			continue
		}
		res.Applied = append(res.Applied, *t)
	}

	if len(res.Failed) > 0 {
		log.WithFields(log.Fields{"workspace": workspaceID, "applied": len(res.Applied), "failed": len(res.Failed)}).Warn("reorder applied partially")
	}
	s.sink.Publish(Event{Type: EventTasksReordered, WorkspaceID: workspaceID, ActorID: userID})
	return res, nil
}

// populate attaches project and assignee display data to each task.
func (s *TaskService) populate(ctx context.Context, workspaceID string, tasks []Task) ([]TaskDetails, error) {
	projects := make(map[string]*Project)
	assignees := make(map[string]*Member)
	for _, t := range tasks {
		if t.ProjectID != "" {
			projects[t.ProjectID] = nil
		}
		if t.AssigneeID != "" {
			assignees[t.AssigneeID] = nil
		}
	}

	for id := range projects {
		p, err := s.projects.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		projects[id] = p
	}
	for id := range assignees {
		m, err := s.members.GetMemberByID(ctx, id)
		if err != nil {
			return nil, err
		}
		assignees[id] = m
	}

	details := make([]TaskDetails, len(tasks))
	for i, t := range tasks {
		details[i] = TaskDetails{Task: t, Project: projects[t.ProjectID], Assignee: assignees[t.AssigneeID]}
	}
	return details, nil
}
