package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/goresultboard/internal/config"
	"github.com/bigkaa/goresultboard/internal/database"
	"github.com/bigkaa/goresultboard/internal/domain/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool и функцию очистки.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("resultboard_test"),
		postgres.WithUsername("resultboard"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("RM_DB_HOST", host)
	os.Setenv("RM_DB_PORT", port.Port())
	os.Setenv("RM_DB_NAME", "resultboard_test")
	os.Setenv("RM_DB_USER", "resultboard")
	os.Setenv("RM_DB_PASSWORD", "test-password")
	os.Setenv("RM_DB_SSL_MODE", "disable")
	os.Setenv("RM_S3_ENDPOINT", "http://localhost:9000")
	os.Setenv("RM_S3_BUCKET", "results")
	os.Setenv("RM_S3_ACCESS_KEY", "test")
	os.Setenv("RM_S3_SECRET_KEY", "test")
	os.Setenv("RM_JWT_SECRET", "test")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	// Подключаемся
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// newTestRecord возвращает запись результата для вставки.
func newTestRecord(title string) *model.ResultRecord {
	id := uuid.New().String()
	key := "results/" + id + ".png"
	return &model.ResultRecord{
		ID:         id,
		Title:      title,
		ImageURL:   "http://minio:9000/results/" + key,
		StorageKey: &key,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

// --- Тесты ResultRepository ---

func TestResultCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewResultRepository(pool)

	rec := newTestRecord("Сдал ОГЭ на отлично")

	// Create
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Повторный Create того же ID — конфликт
	if err := repo.Create(ctx, rec); !errors.Is(err, ErrConflict) {
		t.Errorf("Повторный Create: ожидали ErrConflict, получили: %v", err)
	}

	// GetByID
	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Title != "Сдал ОГЭ на отлично" {
		t.Errorf("Title = %q, хотели %q", got.Title, "Сдал ОГЭ на отлично")
	}
	if got.StorageKey == nil || *got.StorageKey != *rec.StorageKey {
		t.Errorf("StorageKey = %v, хотели %q", got.StorageKey, *rec.StorageKey)
	}
	if got.IsPinned {
		t.Error("Новая запись не должна быть закреплённой")
	}

	// SetPinned
	if err := repo.SetPinned(ctx, rec.ID, true); err != nil {
		t.Fatalf("SetPinned() ошибка: %v", err)
	}
	got2, _ := repo.GetByID(ctx, rec.ID)
	if !got2.IsPinned {
		t.Error("После SetPinned(true) запись должна быть закреплённой")
	}

	// Delete
	if err := repo.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("После Delete ожидали ErrNotFound, получили: %v", err)
	}

	// Delete несуществующей записи
	if err := repo.Delete(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Повторный Delete: ожидали ErrNotFound, получили: %v", err)
	}
}

func TestResultList_OrderAndFilter(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewResultRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	recs := make([]*model.ResultRecord, 3)
	for i := range recs {
		recs[i] = newTestRecord("Запись")
		recs[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, recs[i]); err != nil {
			t.Fatalf("Create() ошибка: %v", err)
		}
	}
	// Закрепляем среднюю
	if err := repo.SetPinned(ctx, recs[1].ID, true); err != nil {
		t.Fatalf("SetPinned() ошибка: %v", err)
	}

	// Полный список — новые первыми
	all, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("List(false) ошибка: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List(false) вернул %d записей, хотели 3", len(all))
	}
	if all[0].ID != recs[2].ID || all[2].ID != recs[0].ID {
		t.Error("List(false): порядок не соответствует новые-первыми")
	}

	// Только закреплённые
	pinned, err := repo.List(ctx, true)
	if err != nil {
		t.Fatalf("List(true) ошибка: %v", err)
	}
	if len(pinned) != 1 || pinned[0].ID != recs[1].ID {
		t.Errorf("List(true) вернул %d записей, хотели 1 (закреплённую)", len(pinned))
	}
}

func TestCountPinned_Exclude(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewResultRepository(pool)

	var ids []string
	for i := 0; i < 3; i++ {
		rec := newTestRecord("Закреплённая")
		rec.IsPinned = true
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create() ошибка: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	count, err := repo.CountPinned(ctx, "")
	if err != nil {
		t.Fatalf("CountPinned() ошибка: %v", err)
	}
	if count != 3 {
		t.Errorf("CountPinned(\"\") = %d, хотели 3", count)
	}

	count2, err := repo.CountPinned(ctx, ids[0])
	if err != nil {
		t.Fatalf("CountPinned(exclude) ошибка: %v", err)
	}
	if count2 != 2 {
		t.Errorf("CountPinned(exclude) = %d, хотели 2", count2)
	}
}

func TestTxRunner_PinUnderTransaction(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewResultRepository(pool)
	txRunner := NewTxRunner(pool)

	rec := newTestRecord("Транзакционная")
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Успешная транзакция: блокировка + обновление
	err := txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		txRepo := NewResultRepository(tx)
		locked, err := txRepo.GetByIDForUpdate(ctx, rec.ID)
		if err != nil {
			return err
		}
		return txRepo.SetPinned(ctx, locked.ID, true)
	})
	if err != nil {
		t.Fatalf("RunInTx() ошибка: %v", err)
	}
	got, _ := repo.GetByID(ctx, rec.ID)
	if !got.IsPinned {
		t.Error("Изменение внутри транзакции не зафиксировано")
	}

	// Ошибка внутри транзакции откатывает изменения
	wantErr := errors.New("намеренная ошибка")
	err = txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		txRepo := NewResultRepository(tx)
		if err := txRepo.SetPinned(ctx, rec.ID, false); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunInTx() = %v, хотели намеренную ошибку", err)
	}
	got2, _ := repo.GetByID(ctx, rec.ID)
	if !got2.IsPinned {
		t.Error("Откат транзакции не сработал: запись откреплена")
	}
}

// --- Тесты AdminUserRepository ---

func TestAdminUserCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewAdminUserRepository(pool)

	// Пустая таблица
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() ошибка: %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, хотели 0", count)
	}

	user := &model.AdminUser{
		Email:        "Admin@Example.COM",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	}

	// Create — email нормализуется
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if user.ID == "" {
		t.Error("ID не установлен после Create")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен после Create")
	}

	// GetByEmail — регистронезависимый поиск
	got, err := repo.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() ошибка: %v", err)
	}
	if got.Email != "admin@example.com" {
		t.Errorf("Email = %q, хотели нормализованный admin@example.com", got.Email)
	}

	// Дубликат email — конфликт
	dup := &model.AdminUser{Email: "admin@example.com", PasswordHash: "hash"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Create(дубликат): ожидали ErrConflict, получили: %v", err)
	}

	// Неизвестный email
	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByEmail(неизвестный): ожидали ErrNotFound, получили: %v", err)
	}
}
