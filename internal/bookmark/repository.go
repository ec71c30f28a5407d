package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/maauso/jobfeed/internal/job"
	"github.com/maauso/jobfeed/internal/storage"
)

// DefaultKey is the store key holding the bookmark list.
const DefaultKey = "@lokalapp_bookmarks"

var (
	// ErrStoreRead is returned when the bookmark list cannot be loaded or decoded.
	ErrStoreRead = errors.New("bookmark: store read failed")

	// ErrStoreWrite is returned when the bookmark list cannot be persisted.
	ErrStoreWrite = errors.New("bookmark: store write failed")

	// ErrEmptyID is returned when saving a job without an id.
	ErrEmptyID = errors.New("bookmark: job id is empty")
)

// Store is the persistence port used by Cache.
type Store interface {
	// Save snapshots j, replacing an existing entry with the same id in place.
	Save(ctx context.Context, j job.Job) error

	// Remove deletes every entry with id. Removing a missing id is a no-op.
	Remove(ctx context.Context, id string) error

	// Exists reports whether id is bookmarked.
	Exists(ctx context.Context, id string) (bool, error)
}

// Compile-time check that Repository implements Store.
var _ Store = (*Repository)(nil)

// Repository keeps bookmarks as one JSON array under a single key of a
// storage.Store. Every operation is a full read-modify-write, serialised by
// a mutex so sequential calls never lose updates.
type Repository struct {
	mu     sync.Mutex
	store  storage.Store
	key    string
	logger *slog.Logger
}

// NewRepository creates a Repository. An empty key selects DefaultKey.
func NewRepository(store storage.Store, key string, logger *slog.Logger) *Repository {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:  store,
		key:    key,
		logger: logger,
	}
}

// Init seeds the key with an empty list if nothing is stored yet.
func (r *Repository) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.store.Get(ctx, r.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("%w: %w", ErrStoreRead, err)
	case strings.TrimSpace(raw) != "":
		return nil
	}

	if err := r.store.Set(ctx, r.key, "[]"); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	r.logger.Info("bookmark store initialised", slog.String("key", r.key))
	return nil
}

// Save snapshots j. An entry with the same id is overwritten at its
// original position, so the list never holds two entries for one id.
func (r *Repository) Save(ctx context.Context, j job.Job) error {
	if j.ID == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return err
	}

	b := New(j)
	replaced := false
	for i := range list {
		if list[i].ID == j.ID {
			list[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, b)
	}

	if err := r.persist(ctx, list); err != nil {
		return err
	}

	r.logger.Info("bookmark saved",
		slog.String("job_id", j.ID),
		slog.Bool("replaced", replaced),
		slog.Int("count", len(list)),
	)
	return nil
}

// Remove deletes all entries with id. Nothing is written when id is absent.
func (r *Repository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return err
	}

	kept := list[:0]
	for _, b := range list {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(list) {
		r.logger.Debug("bookmark remove skipped, not found", slog.String("job_id", id))
		return nil
	}

	if err := r.persist(ctx, kept); err != nil {
		return err
	}

	r.logger.Info("bookmark removed",
		slog.String("job_id", id),
		slog.Int("count", len(kept)),
	)
	return nil
}

// List returns all bookmarks in insertion order.
func (r *Repository) List(ctx context.Context) ([]Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Bookmark, len(list))
	for i, b := range list {
		result[i] = Bookmark{ID: b.ID, Job: b.Job.Clone()}
	}
	return result, nil
}

// Find returns the first bookmark with id.
func (r *Repository) Find(ctx context.Context, id string) (Bookmark, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.load(ctx)
	if err != nil {
		return Bookmark{}, false, err
	}
	for _, b := range list {
		if b.ID == id {
			return Bookmark{ID: b.ID, Job: b.Job.Clone()}, true, nil
		}
	}
	return Bookmark{}, false, nil
}

// Exists reports whether id is bookmarked.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := r.Find(ctx, id)
	return ok, err
}

// load reads and decodes the list. A missing or blank value is an empty list.
func (r *Repository) load(ctx context.Context) ([]Bookmark, error) {
	raw, err := r.store.Get(ctx, r.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var list []Bookmark
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrStoreRead, r.key, err)
	}
	return list, nil
}

func (r *Repository) persist(ctx context.Context, list []Bookmark) error {
	if list == nil {
		list = []Bookmark{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStoreWrite, err)
	}
	if err := r.store.Set(ctx, r.key, string(data)); err != nil {
		r.logger.Error("bookmark write failed",
			slog.String("key", r.key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return nil
}
