// results_admin.go — административные обработчики галереи результатов.
// Все маршруты защищены JWT middleware: создание (multipart загрузка
// изображения), переключение закрепления, удаление.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/bigkaa/goresultboard/internal/api/errors"
	"github.com/bigkaa/goresultboard/internal/api/middleware"
	"github.com/bigkaa/goresultboard/internal/service"
)

// ListAdminResults — GET /api/v1/admin/results.
// Тот же список, что и публичный: отдельный маршрут, чтобы админ-панель
// целиком жила под JWT middleware.
func (h *APIHandler) ListAdminResults(w http.ResponseWriter, r *http.Request) {
	records, err := h.results.List(r.Context(), false)
	if err != nil {
		h.logger.Error("Ошибка получения списка результатов", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	writeJSON(w, http.StatusOK, toResultListResponse(records))
}

// CreateResult — POST /api/v1/admin/results.
// Принимает multipart/form-data с полями:
//   - title — заголовок записи (обязателен)
//   - image — файл изображения JPEG или PNG (обязателен)
func (h *APIHandler) CreateResult(w http.ResponseWriter, r *http.Request) {
	// Лимит на весь запрос: изображение + накладные расходы multipart
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<20)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Невалидный multipart запрос: %v", err))
		return
	}

	title := r.FormValue("title")

	file, header, err := r.FormFile("image")
	if err != nil {
		apierrors.ValidationError(w, "Отсутствует файл в поле image")
		return
	}
	defer file.Close()

	rec, err := h.results.Create(r.Context(), title, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrUpload):
			h.logger.Error("Хранилище недоступно при загрузке",
				slog.String("filename", header.Filename),
				slog.String("error", err.Error()),
			)
			apierrors.UploadError(w, "Объектное хранилище недоступно, запись не создана")
		default:
			h.logger.Error("Ошибка создания записи результата",
				slog.String("filename", header.Filename),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Внутренняя ошибка сервера")
		}
		return
	}

	h.logger.Info("Запись результата создана через API",
		slog.String("id", rec.ID),
		slog.String("admin", middleware.SubjectFromContext(r.Context())),
	)

	writeJSON(w, http.StatusCreated, toResultResponse(rec))
}

// pinRequest — тело запроса переключения закрепления.
type pinRequest struct {
	IsPinned *bool `json:"isPinned"`
}

// SetResultPinned — PATCH /api/v1/admin/results/{id}/pin.
// Тело: {"isPinned": true|false}. Повторное закрепление — no-op 200.
func (h *APIHandler) SetResultPinned(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "Невалидный формат ID: ожидается UUID")
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Невалидное тело запроса: ожидается JSON {isPinned}")
		return
	}
	if req.IsPinned == nil {
		apierrors.ValidationError(w, "Поле isPinned обязательно")
		return
	}

	rec, err := h.results.SetPinned(r.Context(), id, *req.IsPinned)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Запись результата не найдена")
		case errors.Is(err, service.ErrPinLimit):
			apierrors.PinLimitExceeded(w,
				fmt.Sprintf("Достигнут лимит закреплённых записей (%d): открепите другую запись", service.MaxPinned))
		default:
			h.logger.Error("Ошибка переключения закрепления",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Внутренняя ошибка сервера")
		}
		return
	}

	writeJSON(w, http.StatusOK, toResultResponse(rec))
}

// DeleteResult — DELETE /api/v1/admin/results/{id}.
// Успех — 204 без тела.
func (h *APIHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "Невалидный формат ID: ожидается UUID")
		return
	}

	if err := h.results.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Запись результата не найдена")
			return
		}
		h.logger.Error("Ошибка удаления записи результата",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	h.logger.Info("Запись результата удалена через API",
		slog.String("id", id),
		slog.String("admin", middleware.SubjectFromContext(r.Context())),
	)

	w.WriteHeader(http.StatusNoContent)
}
