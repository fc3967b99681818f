package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/utils"
)

var t0 = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

type fakeAPI struct {
	history      []models.ChatMessage
	historyErrs  []error
	historyCalls int

	sendErr   error
	sendCalls int
	sent      []models.SendMessageRequest
	// appended to history on a successful send
	agentReply string

	reportErr   error
	reportCalls int
}

func (f *fakeAPI) GetChatHistory(_ context.Context, _, _ string) ([]models.ChatMessage, error) {
	f.historyCalls++
	if len(f.historyErrs) > 0 {
		err := f.historyErrs[0]
		f.historyErrs = f.historyErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return cloneMessages(f.history), nil
}

func (f *fakeAPI) SendChatMessage(_ context.Context, _ string, req models.SendMessageRequest) (*models.ChatMessage, error) {
	f.sendCalls++
	f.sent = append(f.sent, req)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	n := len(f.history)
	f.history = append(f.history, msg(fmt.Sprintf("m%d", n), models.SenderUser, req.Content))
	reply := msg(fmt.Sprintf("m%d", n+1), models.SenderAgent, f.agentReply)
	f.history = append(f.history, reply)
	return &reply, nil
}

func (f *fakeAPI) GenerateReport(_ context.Context, _, _ string) (*models.ReportTicket, error) {
	f.reportCalls++
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return &models.ReportTicket{ReportID: "r-1", Status: models.ReportGenerating}, nil
}

func msg(id string, sender models.Sender, content string) models.ChatMessage {
	return models.ChatMessage{MessageID: id, Sender: sender, Content: content, CreatedAt: t0}
}

// thread builds n user/agent exchanges, optionally ending on a user message.
func thread(exchanges int, trailingUser bool) []models.ChatMessage {
	var out []models.ChatMessage
	for i := 0; i < exchanges; i++ {
		out = append(out,
			msg(fmt.Sprintf("u%d", i), models.SenderUser, "hi"),
			msg(fmt.Sprintf("a%d", i), models.SenderAgent, "hello"))
	}
	if trailingUser {
		out = append(out, msg("tail", models.SenderUser, "last"))
	}
	return out
}

func newTestSession(api API, opts ...Option) *Session {
	opts = append([]Option{
		WithClock(func() time.Time { return t0 }),
		WithIDGenerator(func() string { return "x" }),
	}, opts...)
	return NewSession(api, "th-1", "u-1", opts...)
}

func TestPhaseOf(t *testing.T) {
	assert.Equal(t, PhaseOpen, PhaseOf(nil, 5))
	assert.Equal(t, PhaseOpen, PhaseOf(thread(4, false), 5))
	assert.Equal(t, PhaseCompleted, PhaseOf(thread(5, false), 5))
	assert.Equal(t, PhaseAwaitingReply, PhaseOf(thread(4, true), 5))
	assert.Equal(t, PhaseCompleted, PhaseOf(thread(6, false), 5), "over the cap still counts as completed")
}

func TestLoad(t *testing.T) {
	api := &fakeAPI{history: thread(2, false)}
	s := newTestSession(api)

	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, s.Messages(), 4)

	api.historyErrs = []error{errors.New("down")}
	assert.Error(t, s.Load(context.Background()))
	assert.Equal(t, MsgLoadFailed, s.View().Error)
	assert.Len(t, s.Messages(), 4, "previous list kept on failure")
}

func TestLoadMissingIdentity(t *testing.T) {
	api := &fakeAPI{}
	s := NewSession(api, "", "u-1")

	assert.ErrorIs(t, s.Load(context.Background()), ErrMissingIdentity)
	assert.Equal(t, MsgMissingIdentity, s.View().Error)
	assert.Zero(t, api.historyCalls)
}

func TestSendSuccessShowsOptimisticThenRefetches(t *testing.T) {
	api := &fakeAPI{agentReply: "来自未来的回应"}
	var views []View
	s := newTestSession(api, WithObserver(func(v View) { views = append(views, v) }))

	require.NoError(t, s.Send(context.Background(), "  你好  "))

	require.NotEmpty(t, views)
	optimistic := views[0]
	require.Len(t, optimistic.Messages, 1)
	assert.True(t, optimistic.Messages[0].Pending)
	assert.Equal(t, "你好", optimistic.Messages[0].Content)
	assert.True(t, optimistic.Sending)
	assert.False(t, optimistic.ComposerEnabled)

	final := s.View()
	assert.False(t, final.Sending)
	require.Len(t, final.Messages, 2)
	assert.False(t, final.Messages[0].Pending)
	assert.Equal(t, "来自未来的回应", final.Messages[1].Content)
	assert.Equal(t, 1, final.UserMessageCount)
	assert.Equal(t, "链接额度：5 次交互 · 已交互 1 / 5", final.Counter)
	assert.Equal(t, []models.SendMessageRequest{{UserID: "u-1", Content: "你好"}}, api.sent)
	assert.Equal(t, 1, api.historyCalls)
}

func TestSendIgnoresBlankAndOverlong(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)

	require.NoError(t, s.Send(context.Background(), "   "))
	assert.Zero(t, api.sendCalls)

	require.NoError(t, s.Send(context.Background(), strings.Repeat("长", models.MaxMessageLength+1)))
	assert.Zero(t, api.sendCalls)
	assert.Equal(t, MsgTooLong, s.View().Error)
}

func TestSendBlockedOutsideOpenPhase(t *testing.T) {
	for _, msgs := range [][]models.ChatMessage{thread(5, false), thread(4, true)} {
		api := &fakeAPI{history: msgs}
		s := newTestSession(api)
		s.Restore(msgs)

		require.NoError(t, s.Send(context.Background(), "one more"))
		assert.Zero(t, api.sendCalls)
		assert.Equal(t, LimitReachedText(DefaultTurnCap), s.View().Error)
		assert.False(t, s.View().ComposerEnabled)
	}
}

func TestLimitTextFollowsTurnCap(t *testing.T) {
	msgs := thread(3, false)
	api := &fakeAPI{history: msgs}
	s := newTestSession(api, WithTurnCap(3))
	s.Restore(msgs)

	require.NoError(t, s.Send(context.Background(), "one more"))
	assert.Zero(t, api.sendCalls)
	assert.Equal(t, "已达到3条消息的限制，无法继续发送。", s.View().Error)

	api = &fakeAPI{
		history: thread(3, false),
		sendErr: utils.E(utils.CodeLimitExceeded, "api.SendChatMessage", "limit", nil),
	}
	s = newTestSession(api, WithTurnCap(3))
	s.Restore(thread(2, false))
	assert.Error(t, s.Send(context.Background(), "third"))
	assert.Equal(t, "您已达到3条消息的限制，无法继续发送。", s.View().Error)
}

func TestSendLimitRejectionResyncsOnce(t *testing.T) {
	server := thread(5, false)
	api := &fakeAPI{
		history: server,
		sendErr: utils.E(utils.CodeLimitExceeded, "api.SendChatMessage", "limit", nil),
	}
	s := newTestSession(api)
	s.Restore(thread(4, false))

	err := s.Send(context.Background(), "fifth")
	assert.True(t, utils.IsCode(err, utils.CodeLimitExceeded))
	assert.Equal(t, 1, api.historyCalls)
	assert.Equal(t, server, s.Messages())

	v := s.View()
	assert.Equal(t, LimitExceededText(DefaultTurnCap), v.Error)
	assert.Equal(t, PhaseCompleted, v.Phase)
	assert.True(t, v.ReportEnabled)
	for _, m := range v.Messages {
		assert.False(t, m.Pending)
	}
}

func TestSendForbiddenTreatedAsLimit(t *testing.T) {
	api := &fakeAPI{sendErr: utils.E(utils.CodeForbidden, "op", "forbidden", nil)}
	s := newTestSession(api)

	assert.Error(t, s.Send(context.Background(), "hi"))
	assert.Equal(t, LimitExceededText(DefaultTurnCap), s.View().Error)
	assert.Equal(t, 1, api.historyCalls)
}

func TestSendGenericFailureRollsBack(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("timeout")}
	s := newTestSession(api)
	s.Restore(thread(1, false))

	assert.Error(t, s.Send(context.Background(), "hi"))
	assert.Len(t, s.Messages(), 2)
	assert.Equal(t, MsgSendFailed, s.View().Error)
	assert.Zero(t, api.historyCalls)
	assert.True(t, s.View().ComposerEnabled)
}

func TestSendRefetchFailureKeepsReply(t *testing.T) {
	api := &fakeAPI{agentReply: "ok", historyErrs: []error{errors.New("flaky")}}
	s := newTestSession(api)

	assert.Error(t, s.Send(context.Background(), "hi"))
	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.SenderUser, msgs[0].Sender)
	assert.Equal(t, "ok", msgs[1].Content)
	assert.Equal(t, MsgLoadFailed, s.View().Error)
}

func TestGenerateReport(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)
	s.Restore(thread(5, false))

	ticket, err := s.GenerateReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r-1", ticket.ReportID)

	v := s.View()
	assert.Equal(t, ProcessingPath, v.Redirect)
	assert.True(t, v.Generating)
	assert.False(t, v.ReportEnabled)

	_, err = s.GenerateReport(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, api.reportCalls)
}

func TestGenerateReportRequiresCompletedThread(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)
	s.Restore(thread(4, true))

	_, err := s.GenerateReport(context.Background())
	assert.ErrorIs(t, err, ErrNotCompleted)
	assert.Zero(t, api.reportCalls)
}

func TestGenerateReportFailureAllowsRetry(t *testing.T) {
	api := &fakeAPI{reportErr: errors.New("500")}
	s := newTestSession(api)
	s.Restore(thread(5, false))

	_, err := s.GenerateReport(context.Background())
	assert.Error(t, err)
	v := s.View()
	assert.Equal(t, MsgReportFailed, v.Error)
	assert.True(t, v.ReportEnabled)
	assert.Empty(t, v.Redirect)
}

func TestViewNotices(t *testing.T) {
	s := newTestSession(&fakeAPI{})
	assert.NotEmpty(t, s.View().EmptyHint)
	assert.Nil(t, s.View().Notice)

	s.Restore(thread(4, true))
	require.NotNil(t, s.View().Notice)
	assert.Equal(t, "请稍候，回复完成后即可生成报告", s.View().Notice.Detail)

	s.Restore(thread(5, false))
	require.NotNil(t, s.View().Notice)
	assert.Equal(t, "链接已完成", s.View().Notice.Title)
	assert.Equal(t, "当前坐标 · 你", s.View().Messages[0].Author)
	assert.Equal(t, "未来坐标 · 化身", s.View().Messages[1].Author)
}

func TestRelativeTime(t *testing.T) {
	now := t0
	assert.Equal(t, "刚刚", RelativeTime(now.Add(-30*time.Second), now))
	assert.Equal(t, "5分钟前", RelativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3小时前", RelativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "3月1日", RelativeTime(now.Add(-72*time.Hour), now))
}
