// Package events carries screen updates from services to connected
// WebSocket clients and report watch jobs to the worker pool.
package events

import (
	"context"
	"encoding/json"
	"strings"
)

const (
	TypeChatView     = "chat_view"
	TypeReportStatus = "report_status"
	TypeError        = "error"

	// ReportStream is the Redis stream report watch jobs are queued on.
	ReportStream = "report:stream"
)

// Event is the JSON envelope written to WebSocket clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (e Event) Encode() ([]byte, error) { return json.Marshal(e) }

func ChatChannel(userID, threadID string) string {
	return "chat:" + userID + ":" + threadID + ":view"
}

func ReportChannel(userID string) string {
	return "report:" + userID + ":status"
}

type Publisher interface {
	Publish(ctx context.Context, channel string, ev Event) error
}

// Subscription delivers raw payloads until Close is called or the context
// passed to Subscribe ends.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) (Subscription, error)
}

type Bus interface {
	Publisher
	Subscriber
}

// ReportJob asks the worker pool to watch one report until it is ready.
type ReportJob struct {
	UserID   string
	ReportID string
	ThreadID string
}

func (j ReportJob) Values() map[string]any {
	return map[string]any{
		"user_id":   j.UserID,
		"report_id": j.ReportID,
		"thread_id": j.ThreadID,
	}
}

// ParseReportJob reads a job back from stream values. ok is false when a
// required field is missing.
func ParseReportJob(values map[string]any) (ReportJob, bool) {
	get := func(k string) string {
		s, _ := values[k].(string)
		return strings.TrimSpace(s)
	}
	j := ReportJob{UserID: get("user_id"), ReportID: get("report_id"), ThreadID: get("thread_id")}
	return j, j.UserID != "" && j.ReportID != ""
}

type Queue interface {
	EnqueueReport(ctx context.Context, job ReportJob) error
}
