package domain

// EventType names a board mutation published for downstream consumers.
type EventType string

const (
	EventTaskCreated       EventType = "task-created"
	EventTaskUpdated       EventType = "task-updated"
	EventTaskDeleted       EventType = "task-deleted"
	EventTasksReordered    EventType = "tasks-reordered"
	EventMemberJoined      EventType = "member-joined"
	EventMemberRemoved     EventType = "member-removed"
	EventMemberRoleChanged EventType = "member-role-changed"
)

// Event records a completed mutation. Events are advisory: publishing is
// best-effort and never blocks or fails the mutation that produced them.
type Event struct {
	Type        EventType `json:"type"`
	WorkspaceID string    `json:"workspaceId"`
	EntityID    string    `json:"entityId"`
	ActorID     string    `json:"actorId"`
	Timestamp   int64     `json:"timestamp"`
}

// EventSink receives events after a successful mutation. Implementations must
// not block the caller.
type EventSink interface {
	Publish(ev Event)
}

// NopSink discards events. Used where no queue is configured and in tests.
type NopSink struct{}

func (NopSink) Publish(Event) {}
