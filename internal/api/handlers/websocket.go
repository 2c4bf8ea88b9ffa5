package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/service"
)

// Client frame types.
const (
	FrameMessage             = "message"
	FrameStateUpdateFeedback = "stateUpdateFeedback"
)

type clientFrame struct {
	Type     string `json:"type"`
	Query    string `json:"query"`
	Positive bool   `json:"positive"`
}

// ChatHandler runs one session per web socket connection. Server frames are
// dialogue events.
type ChatHandler struct {
	registry *service.Registry
	logger   *zap.Logger
	origins  []string
}

// NewChatHandler accepts connections from the given origin patterns in
// addition to same-origin requests.
func NewChatHandler(registry *service.Registry, logger *zap.Logger, origins ...string) *ChatHandler {
	return &ChatHandler{registry: registry, logger: logger, origins: origins}
}

func (h *ChatHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Warn("web socket upgrade failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	s, events, err := h.registry.Create(ctx)
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		conn.Close(websocket.StatusInternalError, "failed to create session")
		return
	}
	defer func() { _ = h.registry.Remove(s.ID) }()

	logger := h.logger.With(zap.String("session_id", s.ID.String()))
	logger.Info("client connected")

	if err := writeEvents(ctx, conn, events); err != nil {
		logger.Warn("failed to send opening events", zap.Error(err))
		return
	}

	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				logger.Info("client disconnected")
			default:
				if !errors.Is(err, context.Canceled) {
					logger.Warn("failed to read frame", zap.Error(err))
				}
			}
			return
		}

		var out []domain.Event
		switch frame.Type {
		case FrameMessage:
			out = s.Step(ctx, frame.Query)
		case FrameStateUpdateFeedback:
			out = []domain.Event{s.RateStateUpdate(ctx, frame.Positive)}
		default:
			out = []domain.Event{domain.NewEvent(domain.EventError, "unknown frame type "+frame.Type)}
		}
		if err := writeEvents(ctx, conn, out); err != nil {
			logger.Warn("failed to send events", zap.Error(err))
			return
		}
	}
}

func writeEvents(ctx context.Context, conn *websocket.Conn, events []domain.Event) error {
	for _, ev := range events {
		if err := wsjson.Write(ctx, conn, ev); err != nil {
			return err
		}
	}
	return nil
}
