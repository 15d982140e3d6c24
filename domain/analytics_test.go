package domain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestAnalytics(f *fakeStore) *AnalyticsService {
	guard := NewGuard(f, f, NewKeyedLocks(), nil)
	return NewAnalyticsService(f, f, guard)
}

func analyticsTask(f *fakeStore, id, workspaceID, projectID, assigneeID string, status TaskStatus, createdAt time.Time, dueDate time.Time) {
	f.tasks[id] = Task{
		ID: id, Name: id, WorkspaceID: workspaceID, ProjectID: projectID,
		AssigneeID: assigneeID, Status: status, Position: 1000,
		CreatedAt: createdAt, DueDate: dueDate,
	}
}

func TestComputeTaskCountAndDifference(t *testing.T) {
	f := newFakeStore()
	addMember(f, "m1", "ws1", "u1", RoleAdmin)
	asOf := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		analyticsTask(f, string(rune('a'+i)), "ws1", "", "", StatusTodo, thisMonth.Add(time.Duration(i)*time.Hour), time.Time{})
	}
	for i := 0; i < 5; i++ {
		analyticsTask(f, string(rune('p'+i)), "ws1", "", "", StatusTodo, lastMonth.Add(time.Duration(i)*time.Hour), time.Time{})
	}

	svc := newTestAnalytics(f)
	snap, err := svc.Compute(context.Background(), Scope{WorkspaceID: "ws1"}, asOf, "u1")
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if snap.TaskCount != 3 {
		t.Fatalf("expected taskCount 3, got %d", snap.TaskCount)
	}
	if snap.TaskDifference != -2 {
		t.Fatalf("expected taskDifference -2, got %d", snap.TaskDifference)
	}
}

func TestComputeAssignedIncompleteCompleted(t *testing.T) {
	f := newFakeStore()
	addMember(f, "m1", "ws1", "u1", RoleAdmin)
	addMember(f, "m2", "ws1", "u2", RoleMember)
	asOf := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)

	analyticsTask(f, "mine", "ws1", "", "m1", StatusTodo, thisMonth, time.Time{})
	analyticsTask(f, "theirs", "ws1", "", "m2", StatusInProgress, thisMonth, time.Time{})
	analyticsTask(f, "done", "ws1", "", "m2", StatusDone, thisMonth, time.Time{})

	svc := newTestAnalytics(f)
	snap, err := svc.Compute(context.Background(), Scope{WorkspaceID: "ws1"}, asOf, "u1")
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if snap.AssignedTaskCount != 1 {
		t.Fatalf("expected assignedTaskCount 1 (requester's member id only), got %d", snap.AssignedTaskCount)
	}
	if snap.IncompleteTaskCount != 2 {
		t.Fatalf("expected incompleteTaskCount 2, got %d", snap.IncompleteTaskCount)
	}
	if snap.CompletedTaskCount != 1 {
		t.Fatalf("expected completedTaskCount 1, got %d", snap.CompletedTaskCount)
	}
}

func TestComputeOverdueAnchorsOnDueDate(t *testing.T) {
	f := newFakeStore()
	addMember(f, "m1", "ws1", "u1", RoleAdmin)
	asOf := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	created := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// Due earlier this month and not done: overdue this month.
	analyticsTask(f, "late", "ws1", "", "", StatusTodo, created, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	// Due later this month: not yet overdue.
	analyticsTask(f, "pending", "ws1", "", "", StatusTodo, created, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
	// Due last month: counts toward the previous window, not this one.
	analyticsTask(f, "stale", "ws1", "", "", StatusTodo, created, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC))
	// Past due but finished: never overdue.
	analyticsTask(f, "closed", "ws1", "", "", StatusDone, created, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))

	svc := newTestAnalytics(f)
	snap, err := svc.Compute(context.Background(), Scope{WorkspaceID: "ws1"}, asOf, "u1")
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if snap.OverdueTaskCount != 1 {
		t.Fatalf("expected overdueTaskCount 1, got %d", snap.OverdueTaskCount)
	}
	if snap.OverdueTaskDifference != 0 {
		t.Fatalf("expected overdueTaskDifference 0 (one overdue each month), got %d", snap.OverdueTaskDifference)
	}
}

func TestComputeProjectScope(t *testing.T) {
	f := newFakeStore()
	addMember(f, "m1", "ws1", "u1", RoleAdmin)
	f.projects["p1"] = Project{ID: "p1", WorkspaceID: "ws1"}
	asOf := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)

	analyticsTask(f, "in", "ws1", "p1", "", StatusTodo, thisMonth, time.Time{})
	analyticsTask(f, "out", "ws1", "", "", StatusTodo, thisMonth, time.Time{})

	svc := newTestAnalytics(f)
	ctx := context.Background()

	snap, err := svc.Compute(ctx, Scope{ProjectID: "p1"}, asOf, "u1")
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if snap.TaskCount != 1 {
		t.Fatalf("project scope expected taskCount 1, got %d", snap.TaskCount)
	}

	if _, err := svc.Compute(ctx, Scope{ProjectID: "missing"}, asOf, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown project, got %v", err)
	}
}

func TestComputeUnauthorized(t *testing.T) {
	f := newFakeStore()
	addMember(f, "m1", "ws1", "u1", RoleAdmin)
	svc := newTestAnalytics(f)

	if _, err := svc.Compute(context.Background(), Scope{WorkspaceID: "ws1"}, time.Now(), "outsider"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestComputeScopeValidation(t *testing.T) {
	f := newFakeStore()
	svc := newTestAnalytics(f)
	if _, err := svc.Compute(context.Background(), Scope{}, time.Now(), "u1"); !IsValidation(err) {
		t.Fatalf("expected validation error for empty scope, got %v", err)
	}
}

func TestMonthWindowBoundaries(t *testing.T) {
	asOf := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	current, previous := monthWindows(asOf)

	if !current.Start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected current start %v", current.Start)
	}
	if !previous.Start.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected previous start %v", previous.Start)
	}
	if !current.End.Before(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("current window must end before next month, got %v", current.End)
	}
	if !previous.End.Before(current.Start) {
		t.Fatalf("windows must not overlap")
	}

	// A task created exactly at the start boundary belongs to the previous
	// month: the lower bound is exclusive.
	f := TaskCountFilter{WorkspaceID: "ws1", CreatedAfter: &current.Start, CreatedUpTo: &current.End}
	boundary := Task{WorkspaceID: "ws1", CreatedAt: current.Start}
	if f.Matches(boundary) {
		t.Fatalf("task created at window start must not match the current window")
	}
}
