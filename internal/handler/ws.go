package handler

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/session"
	"github.com/rtg123uk/storyai/internal/story"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	// paramsWait bounds how long the client may take to send parameters.
	paramsWait = 30 * time.Second
)

// Websocket message types sent by the server.
const (
	MessageProgress = "progress"
	MessageStory    = "story"
	MessageError    = "error"
)

// WSMessage is one server frame on the generation socket.
type WSMessage struct {
	Type     string          `json:"type"`
	Progress *story.Progress `json:"progress,omitempty"`
	Story    *domain.Story   `json:"story,omitempty"`
	Error    *ErrorResponse  `json:"error,omitempty"`
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non-browser clients send no Origin
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// wsConn serializes writes; progress may arrive from several goroutines.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(msg WSMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(msg)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (w *wsConn) close(code int, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	_ = w.conn.Close()
}

// generateWS runs eager generation over a websocket. The client connects
// with ?token=<jwt> (or an Authorization header), sends the story
// parameters as its first message and receives progress frames followed by
// one story or error frame.
func (h *StoryHandler) generateWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if parts := strings.Fields(c.GetHeader("Authorization")); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			token = parts[1]
		}
	}
	if token == "" {
		h.logger.Warn("Missing token for websocket generation")
		authAttempts.WithLabelValues("ws", "failure").Inc()
		handleServiceError(c, domain.ErrUnauthorized)
		return
	}
	sess, err := h.authenticate(c, token)
	if err != nil {
		authAttempts.WithLabelValues("ws", "failure").Inc()
		handleServiceError(c, err)
		return
	}
	authAttempts.WithLabelValues("ws", "success").Inc()
	user, _ := sess.User()
	log := h.logger.With(zap.String("userID", user.ID))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already replied
		log.Error("Failed to upgrade connection", zap.Error(err))
		return
	}
	wsSessionsActive.Inc()
	defer wsSessionsActive.Dec()

	ws := &wsConn{conn: conn}
	conn.SetReadLimit(maxMessageSize)

	var params domain.StoryParameters
	_ = conn.SetReadDeadline(time.Now().Add(paramsWait))
	if err := conn.ReadJSON(&params); err != nil {
		log.Warn("Failed to read story parameters", zap.Error(err))
		h.sendError(ws, badRequest(err))
		ws.close(websocket.CloseUnsupportedData, "invalid parameters")
		return
	}

	ctx, cancel := context.WithCancel(session.NewContext(c.Request.Context(), sess))
	defer cancel()
	go h.readPump(ctx, cancel, conn, log)
	go h.pingPump(ctx, ws, log)

	st, err := h.service.Generate(ctx, sess, params, func(p story.Progress) {
		if err := ws.send(WSMessage{Type: MessageProgress, Progress: &p}); err != nil {
			log.Debug("Failed to send progress", zap.Error(err))
		}
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("Client went away during generation")
			_ = conn.Close()
			return
		}
		h.sendError(ws, err)
		ws.close(websocket.CloseNormalClosure, "generation failed")
		return
	}

	if err := ws.send(WSMessage{Type: MessageStory, Story: st}); err != nil {
		log.Warn("Failed to send story", zap.String("storyID", st.ID), zap.Error(err))
	}
	ws.close(websocket.CloseNormalClosure, "done")
	log.Info("Websocket generation finished", zap.String("storyID", st.ID))
}

func (h *StoryHandler) sendError(ws *wsConn, err error) {
	_, code := statusFor(err)
	msg := err.Error()
	if code == ErrCodeInternal {
		msg = "An unexpected internal error occurred"
	}
	_ = ws.send(WSMessage{Type: MessageError, Error: &ErrorResponse{Code: code, Message: msg}})
}

// readPump handles pongs and notices when the client disconnects. Client
// frames after the parameters are ignored.
func (h *StoryHandler) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, log *zap.Logger) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *StoryHandler) pingPump(ctx context.Context, ws *wsConn, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.ping(); err != nil {
				log.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
