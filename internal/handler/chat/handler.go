package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/echo/backend/internal/middleware"
	"github.com/zhouzirui/echo/backend/internal/model/account"
	"github.com/zhouzirui/echo/backend/internal/model/chat"
	"github.com/zhouzirui/echo/backend/internal/security/token"
	chatService "github.com/zhouzirui/echo/backend/internal/service/chat"
	"github.com/zhouzirui/echo/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	tokens   *token.Issuer
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, tokens *token.Issuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		chatSvc: chatSvc,
		tokens:  tokens,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册聊天相关的路由，全部需要访问令牌
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(h.tokens))
		r.Post("/chat", h.handleChat)
		r.Get("/chat/history", h.handleHistory)
		r.Get("/chat/ws", h.handleWebSocket)
	})
}

// handleChat 处理一轮对话
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var payload chat.Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email, ok := authorizedEmail(r, payload.Email)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "token does not match email")
		return
	}

	reply, err := h.chatSvc.Send(r.Context(), email, payload.Text)
	if err != nil && !errors.Is(err, chatService.ErrPersist) {
		h.logger.ErrorContext(r.Context(), "chat failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// handleHistory 返回当前账户的对话记录
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	email, ok := authorizedEmail(r, r.URL.Query().Get("email"))
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "token does not match email")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.chatSvc.History(r.Context(), email))
}

// authorizedEmail 返回令牌所属邮箱；requested 非空时必须与之一致。
func authorizedEmail(r *http.Request, requested string) (string, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return "", false
	}

	owner := account.NormalizeEmail(claims.Email)
	if requested = account.NormalizeEmail(requested); requested != "" && requested != owner {
		return "", false
	}
	return owner, owner != ""
}
