package domain

// EventKind distinguishes the three inputs the chat platform can deliver.
type EventKind int

const (
	KindMessage EventKind = iota
	KindButton
	KindCommand
)

// InboundEvent is one physical input from the chat platform, already
// stripped down to plain identifiers. Delivery is at-most-once per input;
// platform-level retry dedup is the adapter's problem.
type InboundEvent struct {
	RoomID  string
	UserID  string
	Kind    EventKind
	Payload string
}
