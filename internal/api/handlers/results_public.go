// results_public.go — публичные обработчики галереи результатов.
// Доступны без аутентификации, только чтение.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/bigkaa/goresultboard/internal/api/errors"
	"github.com/bigkaa/goresultboard/internal/service"
)

// ListResults — GET /api/v1/results.
// Все записи результатов, новые первыми.
func (h *APIHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	records, err := h.results.List(r.Context(), false)
	if err != nil {
		h.logger.Error("Ошибка получения списка результатов", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	writeJSON(w, http.StatusOK, toResultListResponse(records))
}

// ListPinnedResults — GET /api/v1/results/pinned.
// Только закреплённые записи, не больше MaxPinned.
func (h *APIHandler) ListPinnedResults(w http.ResponseWriter, r *http.Request) {
	records, err := h.results.List(r.Context(), true)
	if err != nil {
		h.logger.Error("Ошибка получения закреплённых результатов", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	// Лимит гарантируется транзакцией при закреплении, но наружу
	// в любом случае отдаём не больше MaxPinned записей.
	if len(records) > service.MaxPinned {
		h.logger.Warn("Закреплённых записей больше лимита",
			slog.Int("count", len(records)),
			slog.Int("limit", service.MaxPinned),
		)
		records = records[:service.MaxPinned]
	}

	writeJSON(w, http.StatusOK, toResultListResponse(records))
}

// GetResult — GET /api/v1/results/{id}.
func (h *APIHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "Невалидный формат ID: ожидается UUID")
		return
	}

	rec, err := h.results.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись результата не найдена")
			return
		}
		h.logger.Error("Ошибка получения записи результата",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	writeJSON(w, http.StatusOK, toResultResponse(rec))
}
