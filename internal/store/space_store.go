package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vbonduro/shelfmap/internal/domain"
	"github.com/vbonduro/shelfmap/internal/kv"
)

// SpacesKey is the key under which the whole space collection is persisted
// as a single JSON array.
const SpacesKey = "storage_spaces"

// SpaceStore persists the full space tree as one document. Every write
// rewrites the whole document.
type SpaceStore struct {
	kv     kv.Store
	logger *slog.Logger

	// mu serializes the read-modify-write in Upsert and Remove.
	mu sync.Mutex
}

func NewSpaceStore(store kv.Store, logger *slog.Logger) *SpaceStore {
	return &SpaceStore{kv: store, logger: logger}
}

// List returns every stored space in document order. A missing or
// unparseable document is treated as an empty collection.
func (s *SpaceStore) List(ctx context.Context) ([]*domain.Space, error) {
	data, err := s.kv.Get(ctx, SpacesKey)
	if errors.Is(err, kv.ErrNotFound) {
		return []*domain.Space{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read spaces: %w", domain.ErrStorageIO, err)
	}

	var spaces []*domain.Space
	if err := json.Unmarshal(data, &spaces); err != nil {
		s.logger.Error("failed to parse spaces document, treating as empty", "key", SpacesKey, "error", err)
		return []*domain.Space{}, nil
	}
	return normalize(spaces), nil
}

// Get returns the space with the given id or domain.ErrNotFound.
func (s *SpaceStore) Get(ctx context.Context, id string) (*domain.Space, error) {
	spaces, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, space := range spaces {
		if space.ID == id {
			return space, nil
		}
	}
	return nil, fmt.Errorf("%w: space %s", domain.ErrNotFound, id)
}

// Upsert replaces the space with the same id, or appends it.
func (s *SpaceStore) Upsert(ctx context.Context, space *domain.Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spaces, err := s.List(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range spaces {
		if existing.ID == space.ID {
			spaces[i] = space
			replaced = true
			break
		}
	}
	if !replaced {
		spaces = append(spaces, space)
	}
	return s.write(ctx, spaces)
}

// Remove drops the space with the given id. Removing an unknown id rewrites
// the document unchanged.
func (s *SpaceStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spaces, err := s.List(ctx)
	if err != nil {
		return err
	}

	kept := make([]*domain.Space, 0, len(spaces))
	for _, space := range spaces {
		if space.ID != id {
			kept = append(kept, space)
		}
	}
	return s.write(ctx, kept)
}

func (s *SpaceStore) write(ctx context.Context, spaces []*domain.Space) error {
	data, err := json.Marshal(normalize(spaces))
	if err != nil {
		return fmt.Errorf("%w: failed to encode spaces: %w", domain.ErrStorageIO, err)
	}
	if err := s.kv.Set(ctx, SpacesKey, data); err != nil {
		return fmt.Errorf("%w: failed to write spaces: %w", domain.ErrStorageIO, err)
	}
	return nil
}

// normalize replaces nil collections with empty ones so the document always
// carries [] rather than null, and drops null entries.
func normalize(spaces []*domain.Space) []*domain.Space {
	out := make([]*domain.Space, 0, len(spaces))
	for _, space := range spaces {
		if space == nil {
			continue
		}
		locations := make([]*domain.Location, 0, len(space.Locations))
		for _, loc := range space.Locations {
			if loc == nil {
				continue
			}
			items := make([]*domain.Item, 0, len(loc.Items))
			for _, item := range loc.Items {
				if item != nil {
					items = append(items, item)
				}
			}
			loc.Items = items
			locations = append(locations, loc)
		}
		space.Locations = locations
		out = append(out, space)
	}
	return out
}
