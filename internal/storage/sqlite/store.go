// Package sqlite implements the corebank Store on an embedded SQLite
// database via database/sql. SQLite's single-writer model plus
// immediate transactions gives the serializable, row-stable unit of
// work the ledger requires.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements interfaces.Store. A Store is either root (backed by
// the pool) or bound to one transaction via InTx.
type Store struct {
	db     *sql.DB
	q      queryer
	logger *common.Logger
	inTx   bool
}

// Compile-time interface check
var _ interfaces.Store = (*Store)(nil)

// Open creates (if needed) and opens the database at path, applies
// pragmas and the schema, and returns a root Store.
func Open(logger *common.Logger, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	// _txlock=immediate takes the write lock at BEGIN, so every InTx
	// unit of work serializes against all other writers up front.
	dsn := fmt.Sprintf(
		"file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)",
		path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	// SQLite is single-writer; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, q: db, logger: logger}
	if err := s.applySchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database opened")
	return s, nil
}

// OpenInMemory opens an isolated in-memory database, for tests.
func OpenInMemory(logger *common.Logger) (*Store, error) {
	dsn := "file::memory:?_txlock=immediate&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, q: db, logger: logger}
	if err := s.applySchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return s, nil
}

// InTx runs fn inside one serializable transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx interfaces.Store) error) error {
	if s.inTx {
		return fmt.Errorf("nested transaction not supported")
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	bound := &Store{db: s.db, q: tx, logger: s.logger, inTx: true}
	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Error().Err(rbErr).Msg("Transaction rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping reports database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}

// Accessors. Each repo shares the Store's executor so a tx-bound Store
// yields tx-bound repos.

func (s *Store) Users() interfaces.UserStore               { return &userStore{s} }
func (s *Store) Customers() interfaces.CustomerStore       { return &customerStore{s} }
func (s *Store) Accounts() interfaces.AccountStore         { return &accountStore{s} }
func (s *Store) Transactions() interfaces.TransactionStore { return &transactionStore{s} }
func (s *Store) Beneficiaries() interfaces.BeneficiaryStore {
	return &beneficiaryStore{s}
}
func (s *Store) EFTs() interfaces.EFTStore         { return &eftStore{s} }
func (s *Store) Payments() interfaces.PaymentStore { return &paymentStore{s} }

// --- scan/store helpers ---

const timeFormat = time.RFC3339Nano

func fmtTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func fmtDecimal(d decimal.Decimal) string { return d.String() }

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func nowUTC() time.Time { return time.Now().UTC() }

// requireRow turns a zero-row UPDATE into not-found.
func requireRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound(entity, fmt.Sprintf("%d", id))
	}
	return nil
}

// mapErr classifies driver errors into domain errors.
func mapErr(err error, entity, key string) error {
	if err == sql.ErrNoRows {
		return models.ErrNotFound(entity, key)
	}
	if isUniqueViolation(err) {
		return models.WrapError(models.CodeConflict, err, "%s '%s' already exists", entity, key)
	}
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
