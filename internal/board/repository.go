// Package board is the domain repository: it owns the global board, column
// and task collections and hands out board-scoped workspaces that keep the
// global collections and their own working set consistent on every mutation.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/kanban/internal/model"
	"github.com/idilsaglam/kanban/internal/reorder"
	"github.com/idilsaglam/kanban/internal/store"
)

var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrTaskNotFound   = errors.New("task not found")
)

// Repository reads and writes whole collections through a store.Store.
// Every mutation is a read-modify-write of the full global collection.
type Repository struct {
	store  store.Store
	log    logrus.FieldLogger
	ids    *IDGenerator
	engine reorder.Engine
}

// Option configures a Repository.
type Option func(*Repository)

func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Repository) { r.log = l }
}

func WithIDGenerator(g *IDGenerator) Option {
	return func(r *Repository) { r.ids = g }
}

// WithPolicy picks what happens to a column a task leaves by deletion or by
// a cross-column move.
func WithPolicy(p reorder.Policy) Option {
	return func(r *Repository) { r.engine.Policy = p }
}

// New builds a Repository over s. Construct one per process.
func New(s store.Store, opts ...Option) *Repository {
	if s == nil {
		panic("board.New: store is nil")
	}
	r := &Repository{store: s}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	if r.ids == nil {
		r.ids = NewIDGenerator(nil)
	}
	return r
}

// Boards returns every board in creation order.
func (r *Repository) Boards(ctx context.Context) ([]model.Board, error) {
	return loadAll[model.Board](ctx, r.store, store.KeyBoards)
}

// SearchBoards matches term case-insensitively against board names. An empty
// term matches everything.
func (r *Repository) SearchBoards(ctx context.Context, term string) ([]model.Board, error) {
	boards, err := r.Boards(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return boards, nil
	}
	out := make([]model.Board, 0, len(boards))
	for _, b := range boards {
		if strings.Contains(strings.ToLower(b.Name), term) {
			out = append(out, b)
		}
	}
	return out, nil
}

// CreateBoard validates the form values and appends a new board.
func (r *Repository) CreateBoard(ctx context.Context, name, description string) (model.Board, error) {
	if err := model.ValidateBoard(name); err != nil {
		return model.Board{}, err
	}
	boards, err := r.Boards(ctx)
	if err != nil {
		return model.Board{}, err
	}
	id, err := r.newID(ctx)
	if err != nil {
		return model.Board{}, err
	}
	b := model.Board{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	if err := r.save(ctx, store.KeyBoards, append(boards, b)); err != nil {
		return model.Board{}, err
	}
	r.log.WithFields(logrus.Fields{"board": b.ID, "name": b.Name}).Debug("board created")
	return b, nil
}

// Board looks a single board up.
func (r *Repository) Board(ctx context.Context, id string) (model.Board, error) {
	boards, err := r.Boards(ctx)
	if err != nil {
		return model.Board{}, err
	}
	for _, b := range boards {
		if b.ID == id {
			return b, nil
		}
	}
	return model.Board{}, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
}

// Open loads the working set of one board.
func (r *Repository) Open(ctx context.Context, boardID string) (*Workspace, error) {
	b, err := r.Board(ctx, boardID)
	if err != nil {
		return nil, err
	}
	w := &Workspace{repo: r, board: b}
	if err := w.Reload(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// newID allocates an id unused by any board, column or task. A drop target
// is looked up as a task before a column, so ids must not repeat across
// collections.
func (r *Repository) newID(ctx context.Context) (string, error) {
	boards, err := r.Boards(ctx)
	if err != nil {
		return "", err
	}
	cols, err := r.columns(ctx)
	if err != nil {
		return "", err
	}
	tasks, err := r.tasks(ctx)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(boards)+len(cols)+len(tasks))
	for _, b := range boards {
		taken[b.ID] = struct{}{}
	}
	for _, c := range cols {
		taken[c.ID] = struct{}{}
	}
	for _, t := range tasks {
		taken[t.ID] = struct{}{}
	}
	return r.ids.nextFree(taken), nil
}

func (r *Repository) columns(ctx context.Context) ([]model.Column, error) {
	return loadAll[model.Column](ctx, r.store, store.KeyColumns)
}

func (r *Repository) tasks(ctx context.Context) ([]model.Task, error) {
	return loadAll[model.Task](ctx, r.store, store.KeyTasks)
}

func (r *Repository) save(ctx context.Context, key string, value any) error {
	if err := r.store.Save(ctx, key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// loadAll treats an absent collection as empty.
func loadAll[T any](ctx context.Context, s store.Store, key string) ([]T, error) {
	var v []T
	found, err := s.Load(ctx, key, &v)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !found || v == nil {
		return []T{}, nil
	}
	return v, nil
}
