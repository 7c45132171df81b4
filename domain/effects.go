package domain

// Effect is a declarative output the game core hands back to the platform
// adapter. The core never talks to the platform directly.
type Effect interface {
	isEffect()
}

// SendText posts a plain message to a room.
type SendText struct {
	RoomID string
	Text   string
}

// SendPrivate delivers a message only the addressed user can see.
type SendPrivate struct {
	UserID string
	Text   string
}

// EditLastMessage replaces the core's most recent message in a room,
// optionally swapping the interactive controls below it.
type EditLastMessage struct {
	RoomID   string
	Text     string
	Controls []Control
}

// AddReaction attaches an emoji to the triggering message.
type AddReaction struct {
	RoomID string
	Emoji  string
}

// Control is one button rendered under a message. Pressing it comes back
// as an InboundEvent with Kind=KindButton and Payload=Action.
type Control struct {
	Label  string
	Action string
}

func (SendText) isEffect()        {}
func (SendPrivate) isEffect()     {}
func (EditLastMessage) isEffect() {}
func (AddReaction) isEffect()     {}
