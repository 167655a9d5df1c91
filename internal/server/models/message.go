// Package models holds the persisted entities shared by repositories,
// services and handlers.
package models

import "time"

// Sender is the author role of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// MessageKind tags what a message means in the conversation. It is assigned
// when the message is written. Rows stored before kinds existed carry
// KindUnknown.
type MessageKind string

const (
	KindUnknown MessageKind = ""

	// user messages
	KindDream    MessageKind = "dream"
	KindAccept   MessageKind = "accept"
	KindQuestion MessageKind = "question"

	// bot messages
	KindImage          MessageKind = "image"
	KindInterpretation MessageKind = "interpretation"
	KindOfferFollowup  MessageKind = "offer_followup"
	KindTherapyPrompt  MessageKind = "therapy_prompt"
	KindAnswer         MessageKind = "answer"
	KindError          MessageKind = "error"
)

// Message is one entry in a session's append-only log. At least one of Text
// and ImageData is set on every persisted row.
type Message struct {
	ID        int64
	SessionID int64
	Sender    Sender
	Kind      MessageKind
	Text      *string
	ImageData *string
	Timestamp time.Time
}

// TextOrEmpty returns the text body or "" when absent.
func (m Message) TextOrEmpty() string {
	if m.Text == nil {
		return ""
	}
	return *m.Text
}

// StringPtr returns a pointer to s, or nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
