package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/taskhub/internal/domain"
)

var _ domain.Store = (*Store)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// runs unchanged inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repos struct {
	tenants  *TenantRepo
	users    *UserRepo
	projects *ProjectRepo
	tasks    *TaskRepo
}

func newRepos(q querier) repos {
	return repos{
		tenants:  &TenantRepo{q: q},
		users:    &UserRepo{q: q},
		projects: &ProjectRepo{q: q},
		tasks:    &TaskRepo{q: q},
	}
}

func (r repos) Tenants() domain.TenantRepository   { return r.tenants }
func (r repos) Users() domain.UserRepository       { return r.users }
func (r repos) Projects() domain.ProjectRepository { return r.projects }
func (r repos) Tasks() domain.TaskRepository       { return r.tasks }

type Store struct {
	repos
	pool  *pgxpool.Pool
	audit *AuditRepo
}

// New opens a pool against dsn and verifies connectivity.
func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		repos: newRepos(pool),
		pool:  pool,
		audit: &AuditRepo{q: pool},
	}, nil
}

func (s *Store) Audit() domain.AuditRepository { return s.audit }

// InTx runs fn inside a read-committed transaction. Repositories handed to fn
// are bound to that transaction; row locks taken through them are held until
// fn returns.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, newRepos(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}
