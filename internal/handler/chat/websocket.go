package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	chatService "github.com/zhouzirui/echo/backend/internal/service/chat"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type inboundMessage struct {
	Text string `json:"text"`
}

// handleWebSocket 每个入站 {"text"} 帧按 /chat 的语义应答一次
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	email, ok := authorizedEmail(r, "")
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	go h.pingLoop(ctx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WarnContext(ctx, "websocket read error", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := h.writeJSON(conn, map[string]string{"error": "invalid message"}); err != nil {
				return
			}
			continue
		}

		reply, err := h.chatSvc.Send(ctx, email, msg.Text)
		if err != nil && !errors.Is(err, chatService.ErrPersist) {
			h.logger.ErrorContext(ctx, "websocket chat failed", "error", err)
			if err := h.writeJSON(conn, map[string]string{"error": "internal error"}); err != nil {
				return
			}
			continue
		}
		if err := h.writeJSON(conn, reply); err != nil {
			return
		}
	}
}

func (h *Handler) writeJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v)
}

// pingLoop 定期发送ping消息；WriteControl 可与读写循环并发调用
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
