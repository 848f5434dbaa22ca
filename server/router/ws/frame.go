package ws

import "fmt"

// Inbound frame kinds.
const (
	FrameTypeMessage = "message"
	FrameTypePing    = "ping"
)

// Outbound event kinds.
const (
	EventTypeConnected  = "connected"
	EventTypeProcessing = "processing"
	EventTypeChunk      = "chunk"
	EventTypeDone       = "done"
	EventTypeSaved      = "saved"
	EventTypePong       = "pong"
	EventTypeError      = "error"
)

// Stable error codes carried on error events.
const (
	ErrorCodeInvalidJSON       = "INVALID_JSON"
	ErrorCodeProcessing        = "PROCESSING_ERROR"
	ErrorCodeMessageProcessing = "MESSAGE_PROCESSING_ERROR"
)

// Frame is one client-to-server JSON object. A missing type defaults
// to "message".
type Frame struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Event is one server-to-client JSON object.
type Event struct {
	Type           string `json:"type"`
	SessionID      string `json:"session_id,omitempty"`
	Content        string `json:"content,omitempty"`
	ConversationID int32  `json:"conversation_id,omitempty"`
	Message        string `json:"message,omitempty"`
	ErrorCode      string `json:"error_code,omitempty"`
}

func ConnectedEvent(sessionID string) *Event {
	return &Event{
		Type:      EventTypeConnected,
		SessionID: sessionID,
		Message:   "WebSocket接続が確立されました",
	}
}

func ProcessingEvent() *Event {
	return &Event{
		Type:    EventTypeProcessing,
		Message: "AIが回答を生成中です...",
	}
}

func ChunkEvent(content string) *Event {
	return &Event{Type: EventTypeChunk, Content: content}
}

func DoneEvent() *Event {
	return &Event{
		Type:    EventTypeDone,
		Message: "回答の生成が完了しました",
	}
}

func SavedEvent(conversationID int32) *Event {
	return &Event{
		Type:           EventTypeSaved,
		ConversationID: conversationID,
		Message:        "会話が保存されました",
	}
}

func PongEvent() *Event {
	return &Event{Type: EventTypePong}
}

func ErrorEvent(message, errorCode string) *Event {
	return &Event{Type: EventTypeError, Message: message, ErrorCode: errorCode}
}

func UnknownTypeEvent(frameType string) *Event {
	return ErrorEvent(fmt.Sprintf("不明なメッセージタイプ: %s", frameType), "")
}
