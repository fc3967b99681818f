package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/yoockh/futureself/internal/models"
)

type MessageView struct {
	ID        string        `json:"message_id"`
	Sender    models.Sender `json:"sender"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Author    string        `json:"author"`
	TimeLabel string        `json:"time_label"`
	Pending   bool          `json:"pending"`
}

// Notice replaces the composer once the turn cap is reached.
type Notice struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// View is what the browser renders for the chat page.
type View struct {
	ThreadID         string        `json:"thread_id"`
	Messages         []MessageView `json:"messages"`
	Phase            Phase         `json:"phase"`
	UserMessageCount int           `json:"user_message_count"`
	TurnCap          int           `json:"turn_cap"`
	Counter          string        `json:"counter"`
	EmptyHint        string        `json:"empty_hint,omitempty"`

	ComposerEnabled bool    `json:"composer_enabled"`
	ReportEnabled   bool    `json:"report_enabled"`
	Notice          *Notice `json:"notice,omitempty"`

	Loading    bool `json:"loading"`
	Sending    bool `json:"sending"`
	Generating bool `json:"generating"`

	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (s *Session) View() View {
	now := s.now()
	msgs := make([]MessageView, 0, len(s.messages))
	for _, m := range s.messages {
		author := "未来坐标 · 化身"
		if m.Sender == models.SenderUser {
			author = "当前坐标 · 你"
		}
		msgs = append(msgs, MessageView{
			ID:        m.MessageID,
			Sender:    m.Sender,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			Author:    author,
			TimeLabel: RelativeTime(m.CreatedAt, now),
			Pending:   strings.HasPrefix(m.MessageID, tempIDPrefix),
		})
	}

	count := UserMessageCount(s.messages)
	phase := s.Phase()
	v := View{
		ThreadID:         s.threadID,
		Messages:         msgs,
		Phase:            phase,
		UserMessageCount: count,
		TurnCap:          s.turnCap,
		Counter:          fmt.Sprintf("链接额度：%d 次交互 · 已交互 %d / %d", s.turnCap, count, s.turnCap),
		ComposerEnabled:  phase == PhaseOpen && !s.sending && !s.loading,
		ReportEnabled:    phase == PhaseCompleted && !s.generating,
		Loading:          s.loading,
		Sending:          s.sending,
		Generating:       s.generating,
		Error:            s.errText,
		Redirect:         s.redirect,
	}
	if len(msgs) == 0 {
		v.EmptyHint = "发送你的第一条信息，开始这次深度链接。"
	}
	switch phase {
	case PhaseCompleted:
		v.Notice = &Notice{
			Title:  "链接已完成",
			Detail: fmt.Sprintf("你已完成本次 %d 轮深度交互。现在可以生成本次链接的时空洞察报告了！", s.turnCap),
		}
	case PhaseAwaitingReply:
		v.Notice = &Notice{
			Title:  "未来化身正在处理你的最后一条信息...",
			Detail: "请稍候，回复完成后即可生成报告",
		}
	}
	return v
}

// RelativeTime renders t relative to now the way the chat list labels
// messages.
func RelativeTime(t, now time.Time) string {
	minutes := int(now.Sub(t) / time.Minute)
	switch {
	case minutes < 1:
		return "刚刚"
	case minutes < 60:
		return fmt.Sprintf("%d分钟前", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%d小时前", minutes/60)
	default:
		return fmt.Sprintf("%d月%d日", int(t.Month()), t.Day())
	}
}
