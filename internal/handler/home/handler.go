package home

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed static/index.html
var indexHTML []byte

// Handler 提供内置的网页客户端
type Handler struct{}

// New 创建首页处理器
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes 注册首页路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}
