package protocol

// Wire constants.
const (
	// U128Marker precedes every u128 field. It is written and skipped, never
	// checked against the field size.
	U128Marker = 128

	MaxTextLen = 1<<16 - 1

	requestMarkerLen  = 1
	responseMarkerLen = 2
)

// Request tags.
const (
	TagJoin    byte = 0
	TagMessage byte = 1
)

// Response tags.
const (
	TagError      byte = 0
	TagJoinReject byte = 1
	TagJoined     byte = 2
	TagMsgSent    byte = 3
)

// Frame is one complete Request or Response value.
type Frame interface {
	Tag() byte
	Kind() string
}

// Request is the closed set of client->server frames: Join, Message.
type Request interface {
	Frame
	isRequest()
}

// Response is the closed set of server->client frames: Error, JoinReject,
// Joined, MsgSent.
type Response interface {
	Frame
	isResponse()
}

// Join asks to join a room.
type Join struct {
	RoomID U128
}

// Message is text addressed to a room.
type Message struct {
	RoomID U128
	Text   string
}

// Error answers a malformed request or one illegal in the current state.
type Error struct{}

// JoinReject refuses a join.
type JoinReject struct{}

// Joined accepts a join and echoes the room id.
type Joined struct {
	RoomID U128
}

// MsgSent accepts a message and carries the server-assigned id.
type MsgSent struct {
	MessageID U128
}

func (Join) Tag() byte       { return TagJoin }
func (Join) Kind() string    { return "join" }
func (Join) isRequest()      {}
func (Message) Tag() byte    { return TagMessage }
func (Message) Kind() string { return "message" }
func (Message) isRequest()   {}

func (Error) Tag() byte         { return TagError }
func (Error) Kind() string      { return "error" }
func (Error) isResponse()       {}
func (JoinReject) Tag() byte    { return TagJoinReject }
func (JoinReject) Kind() string { return "join_reject" }
func (JoinReject) isResponse()  {}
func (Joined) Tag() byte        { return TagJoined }
func (Joined) Kind() string     { return "joined" }
func (Joined) isResponse()      {}
func (MsgSent) Tag() byte       { return TagMsgSent }
func (MsgSent) Kind() string    { return "msg_sent" }
func (MsgSent) isResponse()     {}
