package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goresultboard/internal/domain/model"
)

// AdminUserRepository — интерфейс доступа к таблице admin_users.
type AdminUserRepository interface {
	// Create создаёт администратора.
	Create(ctx context.Context, u *model.AdminUser) error
	// GetByEmail возвращает администратора по email (без учёта регистра).
	GetByEmail(ctx context.Context, email string) (*model.AdminUser, error)
	// Count возвращает количество администраторов.
	Count(ctx context.Context) (int, error)
}

// adminUserRepo — реализация AdminUserRepository.
type adminUserRepo struct {
	db DBTX
}

// NewAdminUserRepository создаёт репозиторий администраторов.
func NewAdminUserRepository(db DBTX) AdminUserRepository {
	return &adminUserRepo{db: db}
}

func (r *adminUserRepo) Create(ctx context.Context, u *model.AdminUser) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	query := `
		INSERT INTO admin_users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, strings.ToLower(u.Email), u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: администратор с таким email уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания администратора: %w", err)
	}
	return nil
}

func (r *adminUserRepo) GetByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM admin_users
		WHERE email = $1`

	u := &model.AdminUser{}
	err := r.db.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения администратора: %w", err)
	}
	return u, nil
}

func (r *adminUserRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта администраторов: %w", err)
	}
	return count, nil
}
