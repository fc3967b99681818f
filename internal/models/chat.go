package models

import "time"

type Sender string

const (
	SenderUser  Sender = "USER"
	SenderAgent Sender = "AGENT"
)

// MaxMessageLength bounds the content of one outbound chat message, in runes.
const MaxMessageLength = 1000

// ChatMessage is one turn of a chat thread. Optimistic messages carry a
// temporary id until the history is refetched.
type ChatMessage struct {
	MessageID string    `json:"message_id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}
