package volt

// Stage represents a scheduling stage for system execution.
// Systems are executed in stage order: Before → Default → After.
type Stage int

const (
	// Before stage runs first. Use for input handling and setup logic
	// that other systems depend on, such as applying queued commands.
	Before Stage = iota

	// Default stage runs second. Use for main simulation logic:
	// power draw, device updates, and most gameplay systems.
	Default

	// After stage runs last. Use for cleanup, snapshot collection,
	// and replication.
	After

	// stageCount is the total number of stages.
	stageCount
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case Before:
		return "Before"
	case Default:
		return "Default"
	case After:
		return "After"
	default:
		return "Unknown"
	}
}
