// results.go — сервис галереи результатов.
// Создание записи (загрузка изображения + метаданные), список,
// переключение закрепления с лимитом, удаление с очисткой хранилища.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goresultboard/internal/domain/model"
	"github.com/bigkaa/goresultboard/internal/repository"
)

// MaxPinned — максимальное число закреплённых записей на главной странице.
const MaxPinned = 4

// Допустимые MIME-типы изображений и расширения ключей объектов.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// AssetStore — операции объектного хранилища, используемые сервисом.
// Реализуется assetstore.Client.
type AssetStore interface {
	// Put загружает объект и возвращает постоянную публичную ссылку.
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	// Delete удаляет объект.
	Delete(ctx context.Context, key string) error
}

// TxFunc выполняет fn над репозиторием результатов внутри транзакции.
type TxFunc func(ctx context.Context, fn func(repo repository.ResultRepository) error) error

// ResultService — сервис галереи результатов.
type ResultService struct {
	repo          repository.ResultRepository
	assets        AssetStore
	inTx          TxFunc
	maxUploadSize int64
	logger        *slog.Logger
}

// NewResultService создаёт сервис галереи результатов.
// txRunner используется для транзакционного переключения закрепления.
func NewResultService(
	txRunner *repository.TxRunner,
	repo repository.ResultRepository,
	assets AssetStore,
	maxUploadSize int64,
	logger *slog.Logger,
) *ResultService {
	inTx := func(ctx context.Context, fn func(repo repository.ResultRepository) error) error {
		return txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
			return fn(repository.NewResultRepository(tx))
		})
	}
	return NewResultServiceWithTx(inTx, repo, assets, maxUploadSize, logger)
}

// NewResultServiceWithTx создаёт сервис с указанной транзакционной обёрткой.
// Используется в тестах с in-memory репозиторием.
func NewResultServiceWithTx(
	inTx TxFunc,
	repo repository.ResultRepository,
	assets AssetStore,
	maxUploadSize int64,
	logger *slog.Logger,
) *ResultService {
	return &ResultService{
		repo:          repo,
		assets:        assets,
		inTx:          inTx,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "result_service")),
	}
}

// List возвращает записи результатов, новые первыми.
// При pinnedOnly=true — только закреплённые.
func (s *ResultService) List(ctx context.Context, pinnedOnly bool) ([]*model.ResultRecord, error) {
	records, err := s.repo.List(ctx, pinnedOnly)
	if err != nil {
		return nil, fmt.Errorf("получение списка результатов: %w", err)
	}
	return records, nil
}

// Get возвращает запись по ID.
func (s *ResultService) Get(ctx context.Context, id string) (*model.ResultRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение записи результата: %w", err)
	}
	return rec, nil
}

// Create создаёт запись результата: валидирует заголовок и изображение,
// загружает объект в хранилище, затем сохраняет метаданные.
//
// Порядок фиксирован: сначала объект, потом запись. При ошибке загрузки
// запись не создаётся. При ошибке сохранения метаданных объект остаётся
// в хранилище — осиротевший объект логируется с ключом и принимается
// как известная несогласованность (job-а сверки нет).
func (s *ResultService) Create(ctx context.Context, title string, image io.Reader) (*model.ResultRecord, error) {
	// Валидация заголовка
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: заголовок не может быть пустым", ErrValidation)
	}

	// Читаем изображение целиком (лимит + 1 байт для обнаружения превышения)
	data, err := io.ReadAll(io.LimitReader(image, s.maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("чтение изображения: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: пустой файл изображения", ErrValidation)
	}
	if int64(len(data)) > s.maxUploadSize {
		return nil, fmt.Errorf("%w: размер изображения превышает максимум %d байт", ErrValidation, s.maxUploadSize)
	}

	// Определяем тип по содержимому, а не по расширению или заголовку запроса.
	// Допустимы только JPEG и PNG — проверка до обращения к хранилищу.
	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: недопустимый тип файла %q, допустимые: image/jpeg, image/png", ErrValidation, contentType)
	}

	id := uuid.New().String()
	key := "results/" + id + ext

	// 1. Загружаем объект в хранилище
	url, err := s.assets.Put(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	// 2. Сохраняем метаданные
	rec := &model.ResultRecord{
		ID:         id,
		Title:      title,
		ImageURL:   url,
		StorageKey: &key,
		IsPinned:   false,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		// Объект уже в хранилище — фиксируем осиротевший ключ для ручной сверки
		s.logger.Warn("Запись не сохранена, объект осиротел в хранилище",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("сохранение записи результата: %w", err)
	}

	s.logger.Info("Запись результата создана",
		slog.String("id", rec.ID),
		slog.String("title", rec.Title),
		slog.Int("size", len(data)),
	)

	return rec, nil
}

// SetPinned переключает закрепление записи.
//
// Выполняется в транзакции с блокировкой строки: количество закреплённых
// записей (без учёта целевой) проверяется под блокировкой, поэтому две
// конкурентные попытки закрепления не могут превысить лимит.
// Повторное закрепление уже закреплённой записи — no-op успех.
func (s *ResultService) SetPinned(ctx context.Context, id string, pinned bool) (*model.ResultRecord, error) {
	var result *model.ResultRecord

	err := s.inTx(ctx, func(repo repository.ResultRepository) error {
		rec, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("получение записи для закрепления: %w", err)
		}

		// Идемпотентность: состояние уже требуемое
		if rec.IsPinned == pinned {
			result = rec
			return nil
		}

		if pinned {
			count, err := repo.CountPinned(ctx, rec.ID)
			if err != nil {
				return fmt.Errorf("подсчёт закреплённых записей: %w", err)
			}
			if count >= MaxPinned {
				return fmt.Errorf("%w: максимум %d", ErrPinLimit, MaxPinned)
			}
		}

		if err := repo.SetPinned(ctx, rec.ID, pinned); err != nil {
			return fmt.Errorf("обновление закрепления: %w", err)
		}

		rec.IsPinned = pinned
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Закрепление записи обновлено",
		slog.String("id", id),
		slog.Bool("is_pinned", pinned),
	)

	return result, nil
}

// Delete удаляет запись результата.
// Метаданные удаляются безусловно; удаление объекта из хранилища —
// best-effort: ошибка хранилища логируется и не влияет на результат.
func (s *ResultService) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("получение записи для удаления: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление записи результата: %w", err)
	}

	// Очистка хранилища. Для старых записей ключ отсутствует — пропускаем.
	if rec.StorageKey != nil {
		if err := s.assets.Delete(ctx, *rec.StorageKey); err != nil {
			s.logger.Warn("Объект не удалён из хранилища",
				slog.String("id", id),
				slog.String("key", *rec.StorageKey),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("Запись результата удалена", slog.String("id", id))
	return nil
}
