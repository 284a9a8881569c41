package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goresultboard/internal/domain/model"
)

// ResultRepository — интерфейс CRUD для таблицы results.
type ResultRepository interface {
	// Create создаёт новую запись результата.
	Create(ctx context.Context, r *model.ResultRecord) error
	// GetByID возвращает запись по UUID.
	GetByID(ctx context.Context, id string) (*model.ResultRecord, error)
	// GetByIDForUpdate возвращает запись по UUID с блокировкой строки
	// (SELECT ... FOR UPDATE). Используется при переключении закрепления.
	GetByIDForUpdate(ctx context.Context, id string) (*model.ResultRecord, error)
	// List возвращает записи, новые первыми.
	// При pinnedOnly=true — только закреплённые.
	List(ctx context.Context, pinnedOnly bool) ([]*model.ResultRecord, error)
	// CountPinned возвращает количество закреплённых записей,
	// исключая запись с excludeID (пустая строка — без исключения).
	CountPinned(ctx context.Context, excludeID string) (int, error)
	// SetPinned обновляет флаг закрепления записи.
	SetPinned(ctx context.Context, id string, pinned bool) error
	// Delete удаляет запись безусловно.
	Delete(ctx context.Context, id string) error
}

// resultRepo — реализация ResultRepository.
type resultRepo struct {
	db DBTX
}

// NewResultRepository создаёт репозиторий записей результатов.
// db — *pgxpool.Pool или pgx.Tx (для транзакционных операций).
func NewResultRepository(db DBTX) ResultRepository {
	return &resultRepo{db: db}
}

func (r *resultRepo) Create(ctx context.Context, rec *model.ResultRecord) error {
	query := `
		INSERT INTO results (id, title, image_url, storage_key, is_pinned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.Title, rec.ImageURL, rec.StorageKey, rec.IsPinned, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: запись с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания записи результата: %w", err)
	}
	return nil
}

func (r *resultRepo) GetByID(ctx context.Context, id string) (*model.ResultRecord, error) {
	return r.get(ctx, id, false)
}

func (r *resultRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.ResultRecord, error) {
	return r.get(ctx, id, true)
}

// get — общая реализация выборки одной записи, опционально с блокировкой строки.
func (r *resultRepo) get(ctx context.Context, id string, forUpdate bool) (*model.ResultRecord, error) {
	query := `
		SELECT id, title, image_url, storage_key, is_pinned, created_at
		FROM results
		WHERE id = $1`
	if forUpdate {
		query += `
		FOR UPDATE`
	}

	rec := &model.ResultRecord{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.Title, &rec.ImageURL, &rec.StorageKey, &rec.IsPinned, &rec.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи результата: %w", err)
	}
	return rec, nil
}

func (r *resultRepo) List(ctx context.Context, pinnedOnly bool) ([]*model.ResultRecord, error) {
	// Сортировка: новые первыми; при равном created_at — по id (DESC),
	// чтобы порядок был стабильным.
	query := `
		SELECT id, title, image_url, storage_key, is_pinned, created_at
		FROM results`
	if pinnedOnly {
		query += `
		WHERE is_pinned`
	}
	query += `
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка результатов: %w", err)
	}
	defer rows.Close()

	var result []*model.ResultRecord
	for rows.Next() {
		rec := &model.ResultRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.ImageURL, &rec.StorageKey, &rec.IsPinned, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи результата: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *resultRepo) CountPinned(ctx context.Context, excludeID string) (int, error) {
	query := `SELECT COUNT(*) FROM results WHERE is_pinned`
	var args []any
	if excludeID != "" {
		query += ` AND id != $1`
		args = append(args, excludeID)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта закреплённых записей: %w", err)
	}
	return count, nil
}

func (r *resultRepo) SetPinned(ctx context.Context, id string, pinned bool) error {
	query := `
		UPDATE results
		SET is_pinned = $2
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, pinned)
	if err != nil {
		return fmt.Errorf("ошибка обновления флага закрепления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *resultRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM results WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи результата: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
