// Package localbackend implements the session collaborator interfaces on a
// bun-managed sqlite database. It is meant for local development and tests;
// a production deployment points the Client at a real backend instead.
package localbackend

import (
	"context"
	"database/sql"

	session "github.com/BustosAndrew/go-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Backend owns the database handle shared by the identity service and the
// document store it builds.
type Backend struct {
	db     *bun.DB
	logger session.Logger
}

var _ session.Backend = (*Backend)(nil)

// Open connects to the database named by cfg.DSN and creates the backing
// tables when missing. An empty DSN uses a shared in-memory database.
func Open(cfg session.Config) (*Backend, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []any{(*UserRecord)(nil), (*DocumentRecord)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			_ = db.Close()
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create backing tables")
		}
	}

	return &Backend{db: db, logger: noopLogger{}}, nil
}

func (b *Backend) WithLogger(logger session.Logger) *Backend {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// DB exposes the underlying bun handle, mainly for test fixtures
func (b *Backend) DB() *bun.DB {
	return b.db
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) NewIdentityService(cfg session.Config) (session.IdentityService, error) {
	return newIdentityService(b.db, []byte(cfg.SigningKey), b.logger), nil
}

func (b *Backend) NewDocumentStore(session.Config) (session.DocumentStore, error) {
	return newDocumentStore(b.db, b.logger), nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
