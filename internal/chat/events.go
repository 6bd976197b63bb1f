package chat

// Event names received from clients.
const (
	EventRegisterUsername   = "register_username"
	EventSendPrivateMessage = "send_private_message"
	EventGetHistory         = "get_history"
)

// Event names sent to clients.
const (
	EventError      = "error"
	EventUserList   = "user_list"
	EventNewMessage = "new_message"
	EventHistory    = "history"
)

// Envelope is the wire frame exchanged with clients: a named event plus its
// payload. Inbound frames carry one of the request types below in Data;
// outbound frames carry the payloads the router emits.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// RegisterUsernameRequest is the payload of a register_username event.
type RegisterUsernameRequest struct {
	Username string `json:"username" validate:"required"`
}

// SendPrivateMessageRequest is the payload of a send_private_message event.
type SendPrivateMessageRequest struct {
	Recipient string `json:"recipient" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

// GetHistoryRequest is the payload of a get_history event.
type GetHistoryRequest struct {
	OtherUser string `json:"other_user" validate:"required"`
}
