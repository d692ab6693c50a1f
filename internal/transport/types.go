package transport

import "github.com/eleven-am/relay-backend/internal/shared"

type MessageType string

const (
	MessageTypeStart          MessageType = "start"
	MessageTypeSubscribe      MessageType = "subscribe"
	MessageTypeStop           MessageType = "stop"
	MessageTypePause          MessageType = "pause"
	MessageTypeChangeLanguage MessageType = "change_language"

	MessageTypeStreamID   MessageType = "streamID"
	MessageTypeTranscript MessageType = "transcript"
	MessageTypeEnd        MessageType = "end"
)

// ClientMessage is every JSON control frame a client may send. Unused fields
// stay empty depending on Type.
type ClientMessage struct {
	Type     MessageType         `json:"type"`
	StreamID string              `json:"streamID,omitempty"`
	Language shared.LanguageCode `json:"language,omitempty"`
}

type StreamIDMessage struct {
	Type     MessageType `json:"type"`
	StreamID string      `json:"streamID"`
}

type TranscriptMessage struct {
	Type                    MessageType         `json:"type"`
	SourceLanguageCode      shared.LanguageCode `json:"sourceLanguageCode"`
	DestinationLanguageCode shared.LanguageCode `json:"destinationLanguageCode"`
	Transcript              string              `json:"transcript"`
	IsPartial               bool                `json:"isPartial"`
	StreamID                string              `json:"streamID"`
}

type EndMessage struct {
	Type     MessageType `json:"type"`
	StreamID string      `json:"streamID"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

const (
	ErrInvalidStreamID    = "Invalid streamID"
	ErrInvalidMessageType = "Invalid message type"
)

func NewStreamIDMessage(streamID string) StreamIDMessage {
	return StreamIDMessage{Type: MessageTypeStreamID, StreamID: streamID}
}

func NewEndMessage(streamID string) EndMessage {
	return EndMessage{Type: MessageTypeEnd, StreamID: streamID}
}
