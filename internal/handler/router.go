package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/echo/backend/internal/handler/account"
	"github.com/zhouzirui/echo/backend/internal/handler/chat"
	"github.com/zhouzirui/echo/backend/internal/handler/home"
	"github.com/zhouzirui/echo/backend/internal/logging"
	middlewarePkg "github.com/zhouzirui/echo/backend/internal/middleware"
	"github.com/zhouzirui/echo/backend/internal/security/token"
	accountService "github.com/zhouzirui/echo/backend/internal/service/account"
	chatService "github.com/zhouzirui/echo/backend/internal/service/chat"
	"github.com/zhouzirui/echo/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(accountSvc *accountService.Service, tokens *token.Issuer, chatSvc *chatService.Service, logger *slog.Logger, allowedOrigins []string) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	home.New().RegisterRoutes(r)
	account.New(accountSvc, tokens, logger).RegisterRoutes(r)
	chat.New(chatSvc, tokens, logger).RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
