// Package memory is a transactional in-process store. InTx runs against a
// private copy of the dataset and swaps it in on commit; one store-wide lock
// serializes transactions, which gives the same linearizable quota checks the
// PostgreSQL row lock gives. Repositories obtained from the Store itself must
// not be used inside an InTx callback.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

type dataset struct {
	tenants  map[uuid.UUID]domain.Tenant
	users    map[uuid.UUID]domain.User
	projects map[uuid.UUID]domain.Project
	tasks    map[uuid.UUID]domain.Task
}

func newDataset() *dataset {
	return &dataset{
		tenants:  make(map[uuid.UUID]domain.Tenant),
		users:    make(map[uuid.UUID]domain.User),
		projects: make(map[uuid.UUID]domain.Project),
		tasks:    make(map[uuid.UUID]domain.Task),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.tenants {
		c.tenants[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.projects {
		c.projects[k] = v
	}
	for k, v := range d.tasks {
		c.tasks[k] = copyTask(v)
	}
	return c
}

// Store implements domain.Store.
type Store struct {
	mu    sync.Mutex
	data  *dataset
	audit []domain.AuditEntry
}

var _ domain.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newDataset()}
}

// access runs fn against a dataset with whatever locking its scope needs.
type access interface {
	with(fn func(d *dataset) error) error
}

// direct is the access of a running transaction; the store lock is already held.
type direct struct{ d *dataset }

func (a direct) with(fn func(d *dataset) error) error { return fn(a.d) }

// locked is the access of the store outside a transaction.
type locked struct{ s *Store }

func (a locked) with(fn func(d *dataset) error) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return fn(a.s.data)
}

type repos struct{ a access }

func (r repos) Tenants() domain.TenantRepository   { return &tenantRepo{a: r.a} }
func (r repos) Users() domain.UserRepository       { return &userRepo{a: r.a} }
func (r repos) Projects() domain.ProjectRepository { return &projectRepo{a: r.a} }
func (r repos) Tasks() domain.TaskRepository       { return &taskRepo{a: r.a} }

func (s *Store) Tenants() domain.TenantRepository   { return repos{a: locked{s}}.Tenants() }
func (s *Store) Users() domain.UserRepository       { return repos{a: locked{s}}.Users() }
func (s *Store) Projects() domain.ProjectRepository { return repos{a: locked{s}}.Projects() }
func (s *Store) Tasks() domain.TaskRepository       { return repos{a: locked{s}}.Tasks() }
func (s *Store) Audit() domain.AuditRepository      { return &auditRepo{s: s} }

// InTx runs fn against a copy of the dataset and commits it when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(ctx, repos{a: direct{work}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.data = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
