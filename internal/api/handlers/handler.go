// handler.go — основной обработчик API Results Module.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bigkaa/goresultboard/internal/domain/model"
	"github.com/bigkaa/goresultboard/internal/service"
)

// APIHandler — основной обработчик API Results Module.
type APIHandler struct {
	health        *HealthHandler
	results       *service.ResultService
	auth          *service.AuthService
	maxUploadSize int64
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// maxUploadSize — лимит размера multipart-запроса (RM_MAX_UPLOAD_SIZE).
func NewAPIHandler(
	health *HealthHandler,
	results *service.ResultService,
	auth *service.AuthService,
	maxUploadSize int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		results:       results,
		auth:          auth,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- DTO ---

// resultResponse — представление записи результата в API.
type resultResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ImageURL  string `json:"imageUrl"`
	IsPinned  bool   `json:"isPinned"`
	CreatedAt string `json:"createdAt"`
}

// resultListResponse — ответ со списком записей.
type resultListResponse struct {
	Results []resultResponse `json:"results"`
	Total   int              `json:"total"`
}

// toResultResponse конвертирует доменную модель в API-представление.
// StorageKey — внутренняя деталь, наружу не отдаётся.
func toResultResponse(rec *model.ResultRecord) resultResponse {
	return resultResponse{
		ID:        rec.ID,
		Title:     rec.Title,
		ImageURL:  rec.ImageURL,
		IsPinned:  rec.IsPinned,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toResultListResponse(records []*model.ResultRecord) resultListResponse {
	resp := resultListResponse{
		Results: make([]resultResponse, 0, len(records)),
		Total:   len(records),
	}
	for _, rec := range records {
		resp.Results = append(resp.Results, toResultResponse(rec))
	}
	return resp
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
