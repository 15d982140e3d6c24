package domain

import (
	"context"
	"time"
)

// Snapshot holds the dashboard's five month-over-month metrics. Counts cover
// the calendar month containing the reference instant; each difference is the
// current count minus the previous month's.
type Snapshot struct {
	TaskCount                int `json:"taskCount"`
	TaskDifference           int `json:"taskDifference"`
	AssignedTaskCount        int `json:"assignedTaskCount"`
	AssignedTaskDifference   int `json:"assignedTaskDifference"`
	IncompleteTaskCount      int `json:"incompleteTaskCount"`
	IncompleteTaskDifference int `json:"incompleteTaskDifference"`
	CompletedTaskCount       int `json:"completedTaskCount"`
	CompletedTaskDifference  int `json:"completedTaskDifference"`
	OverdueTaskCount         int `json:"overdueTaskCount"`
	OverdueTaskDifference    int `json:"overdueTaskDifference"`
}

// Scope selects the aggregation target: a whole workspace or one project.
// Exactly one field must be set.
type Scope struct {
	WorkspaceID string
	ProjectID   string
}

// monthWindow is one calendar-month interval. Tasks match when their anchor
// timestamp is strictly after Start and not after End.
type monthWindow struct {
	Start time.Time
	End   time.Time
}

// monthWindows derives the current and previous calendar-month windows from
// the reference instant, in UTC.
func monthWindows(asOf time.Time) (current, previous monthWindow) {
	asOf = asOf.UTC()
	curStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	curEnd := curStart.AddDate(0, 1, 0).Add(-time.Nanosecond)
	prevStart := curStart.AddDate(0, -1, 0)
	prevEnd := curStart.Add(-time.Nanosecond)
	return monthWindow{Start: curStart, End: curEnd}, monthWindow{Start: prevStart, End: prevEnd}
}

// AnalyticsService computes dashboard snapshots. A single membership check
// gates all five metrics; the counts themselves are independent filtered
// scans over the task store.
type AnalyticsService struct {
	tasks    TaskStore
	projects ProjectStore
	guard    *Guard
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(tasks TaskStore, projects ProjectStore, guard *Guard) *AnalyticsService {
	return &AnalyticsService{tasks: tasks, projects: projects, guard: guard}
}

// Compute aggregates the five metrics for the scope as of the given instant.
// Project scopes resolve their owning workspace first; the requester must be
// a member of that workspace.
func (s *AnalyticsService) Compute(ctx context.Context, scope Scope, asOf time.Time, userID string) (*Snapshot, error) {
	workspaceID := scope.WorkspaceID
	projectID := scope.ProjectID
	if workspaceID == "" {
		if projectID == "" {
			return nil, ValidationError{Field: "scope", Reason: "workspace or project id required"}
		}
		p, err := s.projects.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrNotFound
		}
		workspaceID = p.WorkspaceID
	}

	member, err := s.guard.ResolveMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}

	current, previous := monthWindows(asOf)
	asOfUTC := asOf.UTC()
	done := StatusDone
	base := TaskCountFilter{WorkspaceID: workspaceID, ProjectID: projectID}

	created := func(w monthWindow, f TaskCountFilter) TaskCountFilter {
		f.CreatedAfter = &w.Start
		f.CreatedUpTo = &w.End
		return f
	}
	// Overdue anchors on due date instead of creation time, stays inside the
	// window, and only counts what is already past due and not done. A task
	// overdue since two months ago is not this month's overdue.
	overdue := func(w monthWindow) TaskCountFilter {
		f := base
		f.NotStatus = &done
		f.DueAfter = &w.Start
		f.DueUpTo = &w.End
		f.DueBefore = &asOfUTC
		return f
	}

	assigned := base
	assigned.AssigneeID = member.ID
	incomplete := base
	incomplete.NotStatus = &done
	completed := base
	completed.Status = &done

	var snap Snapshot
	metrics := []struct {
		cur, prev TaskCountFilter
		count, diff *int
	}{
		{created(current, base), created(previous, base), &snap.TaskCount, &snap.TaskDifference},
		{created(current, assigned), created(previous, assigned), &snap.AssignedTaskCount, &snap.AssignedTaskDifference},
		{created(current, incomplete), created(previous, incomplete), &snap.IncompleteTaskCount, &snap.IncompleteTaskDifference},
		{created(current, completed), created(previous, completed), &snap.CompletedTaskCount, &snap.CompletedTaskDifference},
		{overdue(current), overdue(previous), &snap.OverdueTaskCount, &snap.OverdueTaskDifference},
	}

	for _, m := range metrics {
		cur, err := s.tasks.CountTasks(ctx, m.cur)
		if err != nil {
			return nil, err
		}
		prev, err := s.tasks.CountTasks(ctx, m.prev)
		if err != nil {
			return nil, err
		}
		*m.count = cur
		*m.diff = cur - prev
	}
	return &snap, nil
}
