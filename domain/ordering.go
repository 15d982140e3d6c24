package domain

// Position bounds for tasks within a column. MinPosition seeds an empty
// column; positions above MaxPosition are rejected at the API boundary.
const (
	MinPosition  = 1000
	MaxPosition  = 1_000_000
	positionStep = 1000
)

// ValidatePosition rejects positions outside the [MinPosition, MaxPosition]
// contract that callers must uphold.
func ValidatePosition(pos int) error {
	if pos < MinPosition || pos > MaxPosition {
		return ValidationError{Field: "position", Reason: "must be between 1000 and 1000000"}
	}
	return nil
}

// NextPosition derives the position for a task appended to a column. It takes
// the smallest positive position already present and adds one, or seeds at
// MinPosition for an empty column. This is a cheap per-column monotonic
// derivation, not a dense reindex; the MaxPosition ceiling bounds the
// eventual overflow.
func NextPosition(column []Task) int {
	next := 0
	for _, t := range column {
		if t.Position <= 0 {
			continue
		}
		if next == 0 || t.Position < next {
			next = t.Position
		}
	}
	if next == 0 {
		return MinPosition
	}
	return next + 1
}

// PositionForIndex maps a drop index in a column to its stored position.
// Spacing by multiples of 1000 leaves room for future inserts without
// renumbering siblings. There is no rebalancing pass once the gap between two
// adjacent multiples is exhausted; that remains an open product decision.
func PositionForIndex(index int) int {
	pos := (index + 1) * positionStep
	if pos > MaxPosition {
		return MaxPosition
	}
	return pos
}

// ReorderUpdate is one task's target column and position in a reorder batch.
type ReorderUpdate struct {
	TaskID   string     `json:"id"`
	Status   TaskStatus `json:"status"`
	Position int        `json:"position"`
}

// PlanReorder computes the single update for a task dragged to index within
// its own column. Siblings keep their positions; the multiplicative spacing
// leaves the relative order intact without renumbering them.
func PlanReorder(moved Task, index int) []ReorderUpdate {
	if index < 0 {
		index = 0
	}
	return []ReorderUpdate{{TaskID: moved.ID, Status: moved.Status, Position: PositionForIndex(index)}}
}

// PlanColumnInsert places moved at index within a destination column and
// returns the updates needed to make stored positions match. column must be
// the destination's tasks in current board order, without the moved task.
// Every task in the column is recomputed as PositionForIndex(i), but only
// tasks whose stored position (or status, for the moved task) differs are
// emitted, keeping the write set minimal. The moved task is always included.
func PlanColumnInsert(column []Task, moved Task, index int, status TaskStatus) []ReorderUpdate {
	if index < 0 {
		index = 0
	}
	if index > len(column) {
		index = len(column)
	}

	reordered := make([]Task, 0, len(column)+1)
	reordered = append(reordered, column[:index]...)
	movedCopy := moved
	movedCopy.Status = status
	reordered = append(reordered, movedCopy)
	reordered = append(reordered, column[index:]...)

	updates := make([]ReorderUpdate, 0, len(reordered))
	for i, t := range reordered {
		pos := PositionForIndex(i)
		if t.ID != moved.ID && t.Position == pos {
			continue
		}
		updates = append(updates, ReorderUpdate{TaskID: t.ID, Status: status, Position: pos})
	}
	return updates
}
