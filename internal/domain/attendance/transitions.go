package attendance

// EventKind is the role of the device a biometric event came from.
type EventKind string

const (
	EventEntry EventKind = "entry"
	EventExit  EventKind = "exit"
)

// Action is what the ingestion pipeline does with a device event.
type Action int

const (
	// ActionIgnore drops the event as a spurious duplicate.
	ActionIgnore Action = iota
	// ActionBreakIn opens a break.
	ActionBreakIn
	// ActionBreakOut closes the open break.
	ActionBreakOut
	// ActionUndoBreak removes the open break's start marker instead of
	// closing it: an exit badge while already on break means the earlier
	// break-open was accidental and the employee never left the floor.
	ActionUndoBreak
)

func (a Action) String() string {
	switch a {
	case ActionBreakIn:
		return "break_in"
	case ActionBreakOut:
		return "break_out"
	case ActionUndoBreak:
		return "undo_break"
	default:
		return "ignore"
	}
}

type transitionKey struct {
	status Status
	kind   EventKind
}

// deviceTransitions enumerates every guarded (status, device role) case.
// Anything not listed (terminal records, unknown kinds) is ignored.
var deviceTransitions = map[transitionKey]Action{
	{StatusWorking, EventEntry}: ActionIgnore,
	{StatusWorking, EventExit}:  ActionBreakIn,
	{StatusOnBreak, EventEntry}: ActionBreakOut,
	{StatusOnBreak, EventExit}:  ActionUndoBreak,
}

// DeviceAction resolves the table. ok is false when the pair has no defined
// transition.
func DeviceAction(status Status, kind EventKind) (Action, bool) {
	action, ok := deviceTransitions[transitionKey{status, kind}]
	return action, ok
}
