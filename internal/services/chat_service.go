package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/futureself/internal/apiclient"
	"github.com/yoockh/futureself/internal/cache"
	"github.com/yoockh/futureself/internal/chat"
	"github.com/yoockh/futureself/internal/events"
	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/utils"
)

const (
	snapshotTTL = 10 * time.Minute
	sendLockTTL = 60 * time.Second
)

// ChatService serves the turn-limited chat screen. Screen-level failures
// come back inside the view; returned errors are for the caller's status
// code.
type ChatService interface {
	Load(ctx context.Context, userID, threadID string) (*chat.View, error)
	Send(ctx context.Context, userID, threadID, content string) (*chat.View, error)
	GenerateReport(ctx context.Context, userID, threadID string) (*chat.View, error)
}

type ChatServiceConfig struct {
	TurnCap int
}

type chatService struct {
	api      chat.API
	store    cache.Store
	bus      events.Publisher
	queue    events.Queue
	turnCap  int
	observer Observer
	log      *logrus.Logger
}

func NewChatService(api chat.API, store cache.Store, bus events.Publisher, queue events.Queue, cfg ChatServiceConfig, obs Observer, log *logrus.Logger) ChatService {
	if cfg.TurnCap <= 0 {
		cfg.TurnCap = chat.DefaultTurnCap
	}
	if log == nil {
		log = logrus.New()
	}
	return &chatService{
		api:      api,
		store:    store,
		bus:      bus,
		queue:    queue,
		turnCap:  cfg.TurnCap,
		observer: observerOrNop(obs),
		log:      log,
	}
}

func (s *chatService) Load(ctx context.Context, userID, threadID string) (*chat.View, error) {
	const op = "ChatService.Load"
	start := time.Now()

	sess := s.newSession(ctx, userID, threadID)
	err := sess.Load(ctx)
	switch {
	case errors.Is(err, chat.ErrMissingIdentity):
		return nil, utils.E(utils.CodeInvalidArgument, op, "thread_id is required", err)
	case err != nil:
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "thread_id": threadID}).Warn("chat history load failed")
		s.observer.RecordAction("chat.load", OutcomeFailed, time.Since(start))
	default:
		s.saveSnapshot(ctx, userID, threadID, sess.Messages())
		s.observer.RecordAction("chat.load", OutcomeOK, time.Since(start))
	}
	v := sess.View()
	return &v, nil
}

func (s *chatService) Send(ctx context.Context, userID, threadID, content string) (*chat.View, error) {
	const op = "ChatService.Send"
	start := time.Now()

	if userID == "" || threadID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "thread_id is required", nil)
	}

	lock := sendLockKey(userID, threadID)
	token, acquired, err := s.store.TryLock(ctx, lock, sendLockTTL)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to acquire send guard", err)
	}
	if !acquired {
		s.observer.RecordAction("chat.send", OutcomeDuplicate, time.Since(start))
		return nil, utils.E(utils.CodeConflict, op, "a message is already being sent", nil)
	}
	defer func() { _ = s.store.Unlock(context.WithoutCancel(ctx), lock, token) }()

	sess, err := s.restore(ctx, userID, threadID)
	if err != nil {
		v := sess.View()
		return &v, nil
	}

	before := chat.UserMessageCount(sess.Messages())
	cause := sess.Send(ctx, content)
	outcome := OutcomeOK
	switch {
	case cause != nil && (utils.IsCode(cause, utils.CodeLimitExceeded) || utils.IsCode(cause, utils.CodeForbidden)):
		outcome = OutcomeLimit
	case cause != nil:
		outcome = OutcomeFailed
		s.log.WithError(cause).WithFields(logrus.Fields{"user_id": userID, "thread_id": threadID}).Warn("chat send failed")
	case chat.UserMessageCount(sess.Messages()) == before:
		outcome = OutcomeRejected
	}
	s.observer.RecordAction("chat.send", outcome, time.Since(start))

	s.saveSnapshot(ctx, userID, threadID, sess.Messages())
	v := sess.View()
	return &v, nil
}

func (s *chatService) GenerateReport(ctx context.Context, userID, threadID string) (*chat.View, error) {
	const op = "ChatService.GenerateReport"
	start := time.Now()

	if userID == "" || threadID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "thread_id is required", nil)
	}

	lock := "chat:report:" + userID + ":" + threadID
	token, acquired, err := s.store.TryLock(ctx, lock, sendLockTTL)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to acquire report guard", err)
	}
	if !acquired {
		s.observer.RecordAction("chat.report", OutcomeDuplicate, time.Since(start))
		return nil, utils.E(utils.CodeConflict, op, "report generation already triggered", nil)
	}
	defer func() { _ = s.store.Unlock(context.WithoutCancel(ctx), lock, token) }()

	sess, err := s.restore(ctx, userID, threadID)
	if err != nil {
		v := sess.View()
		return &v, nil
	}

	ticket, err := sess.GenerateReport(apiclient.WithUser(ctx, userID))
	switch {
	case errors.Is(err, chat.ErrNotCompleted):
		s.observer.RecordAction("chat.report", OutcomeRejected, time.Since(start))
		return nil, utils.E(utils.CodeConflict, op, "chat is not completed yet", err)
	case err != nil:
		s.observer.RecordAction("chat.report", OutcomeFailed, time.Since(start))
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "thread_id": threadID}).Warn("report trigger failed")
		v := sess.View()
		return &v, nil
	}
	s.observer.RecordAction("chat.report", OutcomeOK, time.Since(start))

	if ticket != nil && ticket.ReportID != "" {
		if err := RememberReport(ctx, s.store, userID, *ticket); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("failed to store report ticket")
		}
		job := events.ReportJob{UserID: userID, ReportID: ticket.ReportID, ThreadID: threadID}
		if err := s.queue.EnqueueReport(ctx, job); err != nil {
			s.log.WithError(err).WithField("report_id", ticket.ReportID).Warn("failed to enqueue report watch")
		}
	}
	v := sess.View()
	return &v, nil
}

func (s *chatService) newSession(ctx context.Context, userID, threadID string) *chat.Session {
	channel := events.ChatChannel(userID, threadID)
	// views keep publishing after the request is gone
	pubCtx := context.WithoutCancel(ctx)
	return chat.NewSession(s.api, threadID, userID,
		chat.WithTurnCap(s.turnCap),
		chat.WithObserver(func(v chat.View) {
			if err := s.bus.Publish(pubCtx, channel, events.Event{Type: events.TypeChatView, Data: v}); err != nil {
				s.log.WithError(err).WithField("channel", channel).Debug("chat view publish failed")
			}
		}),
	)
}

// restore builds a session from the cached snapshot, falling back to a
// history fetch. On a fetch failure the returned session carries the error
// text.
func (s *chatService) restore(ctx context.Context, userID, threadID string) (*chat.Session, error) {
	sess := s.newSession(ctx, userID, threadID)

	var snap []models.ChatMessage
	hit, err := s.store.GetJSON(ctx, snapshotKey(userID, threadID), &snap)
	if err == nil && hit {
		sess.Restore(snap)
		return sess, nil
	}
	if err := sess.Load(ctx); err != nil {
		return sess, err
	}
	return sess, nil
}

func (s *chatService) saveSnapshot(ctx context.Context, userID, threadID string, msgs []models.ChatMessage) {
	if err := s.store.SetJSON(ctx, snapshotKey(userID, threadID), msgs, snapshotTTL); err != nil {
		s.log.WithError(err).WithField("thread_id", threadID).Debug("chat snapshot save failed")
	}
}

func snapshotKey(userID, threadID string) string { return "chat:snapshot:" + userID + ":" + threadID }

func sendLockKey(userID, threadID string) string { return "chat:send:" + userID + ":" + threadID }
