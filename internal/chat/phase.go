// Package chat implements the turn-limited chat screen with a future self.
package chat

import "github.com/yoockh/futureself/internal/models"

// DefaultTurnCap is the number of user messages a thread accepts.
const DefaultTurnCap = 5

// Phase is derived from the message list; it is never stored.
type Phase string

const (
	PhaseOpen          Phase = "OPEN"
	PhaseAwaitingReply Phase = "AWAITING_REPLY"
	PhaseCompleted     Phase = "COMPLETED"
)

func UserMessageCount(msgs []models.ChatMessage) int {
	n := 0
	for _, m := range msgs {
		if m.Sender == models.SenderUser {
			n++
		}
	}
	return n
}

// PhaseOf classifies a thread. Below the cap the composer is open; at the
// cap the thread is completed once the last message came from the agent.
func PhaseOf(msgs []models.ChatMessage, turnCap int) Phase {
	if UserMessageCount(msgs) < turnCap {
		return PhaseOpen
	}
	if len(msgs) > 0 && msgs[len(msgs)-1].Sender == models.SenderAgent {
		return PhaseCompleted
	}
	return PhaseAwaitingReply
}
