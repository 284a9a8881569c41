// Пакет repository — доступ к таблицам results и admin_users.
// Чистый SQL через pgx, без ORM. Репозитории принимают DBTX,
// поэтому одинаково работают поверх пула и внутри транзакции.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Сигнальные ошибки слоя репозиториев. Сервисный слой
// транслирует их в свои ошибки, handlers — в HTTP-статусы.
var (
	// ErrNotFound — запись результата или администратор не найдены.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — нарушение уникальности (id записи, email администратора).
	ErrConflict = errors.New("запись уже существует")
)

// DBTX — то, на чём выполняются запросы: *pgxpool.Pool в обычном
// режиме или pgx.Tx, когда репозиторий создан внутри транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner открывает транзакции над пулом. Нужен операциям,
// которым требуется согласованное чтение и запись — прежде всего
// закреплению записи, где проверка лимита и изменение флага
// должны видеть одно состояние таблицы.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner над пулом подключений.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn в транзакции: ошибка fn откатывает её,
// успех — коммитит. fn получает pgx.Tx и обычно оборачивает его
// в репозиторий через NewResultRepository.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита транзакции: %w", err)
	}
	return nil
}

// isUniqueViolation распознаёт нарушение unique-ограничения PostgreSQL
// (дубликат id результата или email администратора).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
