package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/utils"
)

const (
	MsgMissingIdentity = "未找到未来人设ID或用户信息"
	MsgLoadFailed      = "加载聊天历史失败，请稍后重试。"
	MsgSendFailed      = "发送消息失败，请稍后重试。"
	MsgTooLong         = "消息不能超过1000个字符。"
	MsgNoUser          = "未找到用户信息"
	MsgReportFailed    = "触发报告生成失败，请稍后重试。"

	// ProcessingPath is where a triggered report leads.
	ProcessingPath = "/report/processing"

	tempIDPrefix = "temp-user-"
)

// LimitReachedText is shown when the composer is used after the cap.
func LimitReachedText(turnCap int) string {
	return fmt.Sprintf("已达到%d条消息的限制，无法继续发送。", turnCap)
}

// LimitExceededText is shown when the remote rejects a send over the cap.
func LimitExceededText(turnCap int) string {
	return fmt.Sprintf("您已达到%d条消息的限制，无法继续发送。", turnCap)
}

var (
	ErrMissingIdentity = errors.New("chat: thread or user id missing")
	ErrBusy            = errors.New("chat: request already in flight")
	ErrNotCompleted    = errors.New("chat: thread is not completed")
)

// API is the slice of the remote client the chat screen uses.
type API interface {
	GetChatHistory(ctx context.Context, threadID, userID string) ([]models.ChatMessage, error)
	SendChatMessage(ctx context.Context, threadID string, req models.SendMessageRequest) (*models.ChatMessage, error)
	GenerateReport(ctx context.Context, profileID, threadID string) (*models.ReportTicket, error)
}

type Option func(*Session)

func WithTurnCap(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.turnCap = n
		}
	}
}

// WithObserver registers a callback invoked with every intermediate view,
// including the optimistic one.
func WithObserver(fn func(View)) Option {
	return func(s *Session) { s.observe = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// Session is the state of one chat screen for one user and thread. It is
// driven by one caller at a time.
type Session struct {
	api      API
	threadID string
	userID   string
	turnCap  int

	messages   []models.ChatMessage
	loading    bool
	sending    bool
	generating bool
	errText    string
	redirect   string

	observe func(View)
	now     func() time.Time
	newID   func() string
}

func NewSession(api API, threadID, userID string, opts ...Option) *Session {
	s := &Session{
		api:      api,
		threadID: threadID,
		userID:   userID,
		turnCap:  DefaultTurnCap,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore seeds the message list from a snapshot without a fetch.
func (s *Session) Restore(msgs []models.ChatMessage) {
	s.messages = cloneMessages(msgs)
}

func (s *Session) Messages() []models.ChatMessage { return cloneMessages(s.messages) }

func (s *Session) Phase() Phase { return PhaseOf(s.messages, s.turnCap) }

// Load replaces the message list with the server history.
func (s *Session) Load(ctx context.Context) error {
	if s.threadID == "" || s.userID == "" {
		s.errText = MsgMissingIdentity
		return ErrMissingIdentity
	}

	s.loading = true
	s.errText = ""
	history, err := s.api.GetChatHistory(ctx, s.threadID, s.userID)
	s.loading = false
	if err != nil {
		s.errText = MsgLoadFailed
		s.notify()
		return err
	}
	s.messages = cloneMessages(history)
	s.notify()
	return nil
}

// Send appends the message optimistically, posts it, then replaces the list
// with a full refetch. On failure the optimistic entry is rolled back; a
// turn-limit rejection resyncs from the server instead of trusting local
// state. The returned error is the cause of a failure already reflected in
// the view.
func (s *Session) Send(ctx context.Context, content string) error {
	if s.threadID == "" || s.userID == "" {
		s.errText = MsgMissingIdentity
		return ErrMissingIdentity
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if s.sending {
		return ErrBusy
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		s.errText = MsgTooLong
		return nil
	}
	if s.Phase() != PhaseOpen {
		s.errText = LimitReachedText(s.turnCap)
		return nil
	}

	s.errText = ""
	s.sending = true
	defer func() {
		s.sending = false
		s.notify()
	}()

	tempID := tempIDPrefix + s.newID()
	s.messages = append(cloneMessages(s.messages), models.ChatMessage{
		MessageID: tempID,
		Sender:    models.SenderUser,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	s.notify()

	reply, err := s.api.SendChatMessage(ctx, s.threadID, models.SendMessageRequest{
		UserID:  s.userID,
		Content: content,
	})
	if err != nil {
		s.messages = without(s.messages, tempID)
		if isLimitExceeded(err) {
			s.errText = LimitExceededText(s.turnCap)
			if history, herr := s.api.GetChatHistory(ctx, s.threadID, s.userID); herr == nil {
				s.messages = cloneMessages(history)
			}
			return err
		}
		s.errText = MsgSendFailed
		return err
	}

	history, err := s.api.GetChatHistory(ctx, s.threadID, s.userID)
	if err != nil {
		// the send went through; keep it and the reply until the next reload
		if reply != nil {
			s.messages = append(s.messages, *reply)
		}
		s.errText = MsgLoadFailed
		return err
	}
	s.messages = cloneMessages(history)
	return nil
}

// GenerateReport triggers report generation for this thread. It is only
// allowed once the thread is completed. On success the view redirects to
// the processing screen and the generating flag stays set.
func (s *Session) GenerateReport(ctx context.Context) (*models.ReportTicket, error) {
	if s.userID == "" {
		s.errText = MsgNoUser
		return nil, ErrMissingIdentity
	}
	if s.Phase() != PhaseCompleted {
		return nil, ErrNotCompleted
	}
	if s.generating {
		return nil, ErrBusy
	}

	s.generating = true
	s.errText = ""
	s.notify()

	ticket, err := s.api.GenerateReport(ctx, "", s.threadID)
	if err != nil {
		s.generating = false
		s.errText = MsgReportFailed
		s.notify()
		return nil, err
	}
	s.redirect = ProcessingPath
	s.notify()
	return ticket, nil
}

func (s *Session) notify() {
	if s.observe != nil {
		s.observe(s.View())
	}
}

func isLimitExceeded(err error) bool {
	return utils.IsCode(err, utils.CodeLimitExceeded) || utils.IsCode(err, utils.CodeForbidden)
}

func without(msgs []models.ChatMessage, id string) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.MessageID != id {
			out = append(out, m)
		}
	}
	return out
}

func cloneMessages(msgs []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
