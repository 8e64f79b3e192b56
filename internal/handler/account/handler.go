package account

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/echo/backend/internal/security/token"
	accountService "github.com/zhouzirui/echo/backend/internal/service/account"
	"github.com/zhouzirui/echo/backend/pkg/utils"
)

// Handler 账户注册与登录的HTTP处理器
type Handler struct {
	accounts *accountService.Service
	tokens   *token.Issuer
	logger   *slog.Logger
}

// New 创建账户处理器
func New(accounts *accountService.Service, tokens *token.Issuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{accounts: accounts, tokens: tokens, logger: logger}
}

// RegisterRoutes 注册账户相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
}

// handleSignup 表单字段 email、password
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	email, password, ok := readCredentials(w, r)
	if !ok {
		return
	}

	if _, err := h.accounts.CreateAccount(r.Context(), email, password); err != nil {
		switch {
		case errors.Is(err, accountService.ErrDuplicateAccount):
			utils.RespondError(w, http.StatusBadRequest, "User exists")
		case errors.Is(err, accountService.ErrInvalidInput):
			utils.RespondError(w, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, accountService.ErrPasswordTooLong):
			utils.RespondError(w, http.StatusBadRequest, "password must be at most 72 bytes")
		default:
			h.logger.ErrorContext(r.Context(), "signup failed", "error", err)
			utils.RespondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	utils.RespondMessage(w, http.StatusOK, "Account created")
}

// handleLogin 校验凭证并签发访问令牌
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	email, password, ok := readCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.VerifyAccount(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, accountService.ErrInvalidCredentials) {
			utils.RespondError(w, http.StatusUnauthorized, "Invalid login")
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	signed, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "issue token failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"email": user.Email,
		"token": signed,
	})
}

// readCredentials 解析 urlencoded 或 multipart 表单
func readCredentials(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		utils.RespondError(w, http.StatusBadRequest, "invalid form")
		return "", "", false
	}
	return r.PostFormValue("email"), r.PostFormValue("password"), true
}
