package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/futureself/internal/events"
	"github.com/yoockh/futureself/internal/services"
	"github.com/yoockh/futureself/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// WSHandler pushes screen updates published on the event bus to the
// browser and accepts chat actions over the same socket.
type WSHandler struct {
	chat     services.ChatService
	reports  services.ReportService
	bus      events.Subscriber
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

// NewWSHandler accepts upgrades from the given origins; an empty list
// accepts any origin.
func NewWSHandler(chat services.ChatService, reports services.ReportService, bus events.Subscriber, origins []string, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logrus.New()
	}
	allowed := map[string]struct{}{}
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &WSHandler{
		chat:    chat,
		reports: reports,
		bus:     bus,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

type wsClientMsg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(messageType int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(messageType, b)
}

func (w *wsConn) writeEvent(ev events.Event) error {
	b, err := ev.Encode()
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, b)
}

func (w *wsConn) writeError(err error) error {
	ae := APIError{Code: utils.CodeInternal, Message: "internal error"}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		ae = APIError{Code: appErr.Code, Message: appErr.Message}
	}
	return w.writeEvent(events.Event{Type: events.TypeError, Data: ae})
}

// ChatWS streams chat views for one thread. Client frames:
// {"type":"send","content":"..."}, {"type":"reload"}, {"type":"generate_report"}.
func (h *WSHandler) ChatWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	threadID := c.Param("thread_id")
	if threadID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.ChatWS", "missing thread_id", nil))
		return
	}

	h.serve(c, events.ChatChannel(userID, threadID), func(ctx context.Context, wc *wsConn) {
		// initial view; published to the channel by the service
		if _, err := h.chat.Load(ctx, userID, threadID); err != nil {
			_ = wc.writeError(err)
		}
	}, func(ctx context.Context, wc *wsConn, msg wsClientMsg) {
		var err error
		switch msg.Type {
		case "send":
			_, err = h.chat.Send(ctx, userID, threadID, msg.Content)
		case "reload":
			_, err = h.chat.Load(ctx, userID, threadID)
		case "generate_report":
			_, err = h.chat.GenerateReport(ctx, userID, threadID)
		default:
			err = utils.E(utils.CodeInvalidArgument, "WSHandler.ChatWS", "unknown message type", nil)
		}
		if err != nil {
			_ = wc.writeError(err)
		}
	})
}

// ReportWS streams report status changes for the current user.
func (h *WSHandler) ReportWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	h.serve(c, events.ReportChannel(userID), func(ctx context.Context, wc *wsConn) {
		if t, err := h.reports.Status(ctx, userID); err == nil {
			_ = wc.writeEvent(events.Event{Type: events.TypeReportStatus, Data: t})
		}
	}, nil)
}

// serve upgrades the request, forwards bus messages from channel to the
// socket and hands client frames to onMsg until either side closes.
func (h *WSHandler) serve(c *gin.Context, channel string, onOpen func(context.Context, *wsConn), onMsg func(context.Context, *wsConn, wsClientMsg)) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "WSHandler.serve", "failed to subscribe", err))
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	log := h.log.WithFields(logrus.Fields{"channel": channel, "request_id": c.GetString("request_id")})
	log.Debug("websocket opened")
	defer log.Debug("websocket closed")

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		conn.SetReadLimit(8 << 10)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}
			if onMsg == nil {
				continue
			}
			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeError(utils.E(utils.CodeInvalidArgument, "WSHandler.read", "invalid json", err))
				continue
			}
			onMsg(ctx, wc, msg)
		}
	}()

	if onOpen != nil {
		onOpen(ctx, wc)
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case payload, ok := <-sub.Messages():
			if !ok {
				return
			}
			if err := wc.write(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
