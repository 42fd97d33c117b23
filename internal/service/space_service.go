package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/vbonduro/shelfmap/internal/domain"
	"github.com/vbonduro/shelfmap/internal/photostore"
	"github.com/vbonduro/shelfmap/internal/vision"
)

// spaceRepository is the subset of store.SpaceStore that SpaceService requires.
type spaceRepository interface {
	List(ctx context.Context) ([]*domain.Space, error)
	Get(ctx context.Context, id string) (*domain.Space, error)
	Upsert(ctx context.Context, space *domain.Space) error
	Remove(ctx context.Context, id string) error
}

// SpaceService is the single entry point for callers. It keeps the space
// tree and the managed photo directory consistent with each other.
type SpaceService struct {
	spaces    spaceRepository
	photos    photostore.PhotoStore
	describer vision.Describer
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

type Option func(*SpaceService)

// WithClock overrides the time source used for item timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SpaceService) { s.now = now }
}

// WithIDGenerator overrides the generator used for new ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *SpaceService) { s.newID = newID }
}

// WithDescriber enables SuggestDescription.
func WithDescriber(d vision.Describer) Option {
	return func(s *SpaceService) { s.describer = d }
}

func NewSpaceService(spaces spaceRepository, photos photostore.PhotoStore, logger *slog.Logger, opts ...Option) *SpaceService {
	s := &SpaceService{
		spaces: spaces,
		photos: photos,
		logger: logger,
		now:    time.Now,
		newID:  domain.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateID returns a fresh id from the configured generator.
func (s *SpaceService) GenerateID() string {
	return s.newID()
}

func (s *SpaceService) ListSpaces(ctx context.Context) ([]*domain.Space, error) {
	return s.spaces.List(ctx)
}

func (s *SpaceService) GetSpace(ctx context.Context, spaceID string) (*domain.Space, error) {
	return s.spaces.Get(ctx, spaceID)
}

func (s *SpaceService) CreateSpace(ctx context.Context, title, photoSource string) (*domain.Space, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if strings.TrimSpace(photoSource) == "" {
		return nil, fmt.Errorf("%w: photo is required", domain.ErrValidation)
	}

	id := s.newID()
	photoPath, err := s.storePhoto(ctx, photoSource, "space_"+id+".jpg")
	if err != nil {
		return nil, err
	}

	space := &domain.Space{
		ID:            id,
		Title:         title,
		PhotoPath:     photoPath,
		ThumbnailPath: photoPath,
		Locations:     []*domain.Location{},
	}
	if err := s.spaces.Upsert(ctx, space); err != nil {
		s.photos.Delete(ctx, photoPath)
		return nil, err
	}

	s.logger.Info("space created", "space_id", id, "title", title)
	return space, nil
}

func (s *SpaceService) RenameSpace(ctx context.Context, spaceID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	space, err := s.spaces.Get(ctx, spaceID)
	if err != nil {
		return err
	}
	space.Title = title
	return s.spaces.Upsert(ctx, space)
}

// DeleteSpace removes the space and every photo under it. Photo deletion
// failures are logged by the photo store and never stop the removal.
func (s *SpaceService) DeleteSpace(ctx context.Context, spaceID string) error {
	space, err := s.spaces.Get(ctx, spaceID)
	if err != nil {
		return err
	}

	for _, loc := range space.Locations {
		s.deleteItemPhotos(ctx, loc)
	}
	s.photos.Delete(ctx, space.PhotoPath)
	if space.ThumbnailPath != space.PhotoPath {
		s.photos.Delete(ctx, space.ThumbnailPath)
	}

	if err := s.spaces.Remove(ctx, spaceID); err != nil {
		return err
	}
	s.logger.Info("space deleted", "space_id", spaceID, "locations", len(space.Locations))
	return nil
}

func (s *SpaceService) AddLocation(ctx context.Context, spaceID string, x, y float64) (*domain.Location, error) {
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return nil, fmt.Errorf("%w: location (%g, %g) is outside the photo", domain.ErrValidation, x, y)
	}

	space, err := s.spaces.Get(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	loc := &domain.Location{ID: s.newID(), X: x, Y: y, Items: []*domain.Item{}}
	space.Locations = append(space.Locations, loc)
	if err := s.spaces.Upsert(ctx, space); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *SpaceService) DeleteLocation(ctx context.Context, spaceID, locationID string) error {
	space, loc, err := s.location(ctx, spaceID, locationID)
	if err != nil {
		return err
	}

	s.deleteItemPhotos(ctx, loc)

	kept := make([]*domain.Location, 0, len(space.Locations))
	for _, l := range space.Locations {
		if l.ID != locationID {
			kept = append(kept, l)
		}
	}
	space.Locations = kept
	return s.spaces.Upsert(ctx, space)
}

func (s *SpaceService) AddItem(ctx context.Context, spaceID, locationID, photoSource, description string) (*domain.Item, error) {
	description, err := validateItem(photoSource, description)
	if err != nil {
		return nil, err
	}

	space, loc, err := s.location(ctx, spaceID, locationID)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	photoPath, stored, err := s.itemPhoto(ctx, id, photoSource)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	item := &domain.Item{
		ID:          id,
		PhotoPath:   photoPath,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	loc.Items = append(loc.Items, item)

	if err := s.spaces.Upsert(ctx, space); err != nil {
		if stored {
			s.photos.Delete(ctx, photoPath)
		}
		return nil, err
	}
	return item, nil
}

// UpdateItem replaces the item record. photoSource is either a newly picked
// image or the item's current managed path.
func (s *SpaceService) UpdateItem(ctx context.Context, spaceID, locationID, itemID, photoSource, description string) (*domain.Item, error) {
	space, loc, err := s.location(ctx, spaceID, locationID)
	if err != nil {
		return nil, err
	}
	idx := loc.ItemIndex(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}
	old := loc.Items[idx]

	description, err = validateItem(photoSource, description)
	if err != nil {
		return nil, err
	}

	photoPath, stored, err := s.itemPhoto(ctx, itemID, photoSource)
	if err != nil {
		return nil, err
	}

	item := &domain.Item{
		ID:          itemID,
		PhotoPath:   photoPath,
		Description: description,
		CreatedAt:   old.CreatedAt,
		UpdatedAt:   s.timestamp(),
	}
	loc.Items[idx] = item

	if err := s.spaces.Upsert(ctx, space); err != nil {
		if stored && photoPath != old.PhotoPath {
			s.photos.Delete(ctx, photoPath)
		}
		return nil, err
	}

	if stored && old.PhotoPath != photoPath {
		s.photos.Delete(ctx, old.PhotoPath)
	}
	return item, nil
}

func (s *SpaceService) DeleteItem(ctx context.Context, spaceID, locationID, itemID string) error {
	space, loc, err := s.location(ctx, spaceID, locationID)
	if err != nil {
		return err
	}
	idx := loc.ItemIndex(itemID)
	if idx < 0 {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}

	s.photos.Delete(ctx, loc.Items[idx].PhotoPath)
	loc.Items = append(loc.Items[:idx], loc.Items[idx+1:]...)
	return s.spaces.Upsert(ctx, space)
}

// MoveItem transfers an item to another location, possibly in another
// space. Across spaces the photo is re-stored under a name qualified by the
// destination space id.
func (s *SpaceService) MoveItem(ctx context.Context, fromSpaceID, fromLocationID, itemID, toSpaceID, toLocationID string) error {
	spaces, err := s.spaces.List(ctx)
	if err != nil {
		return err
	}

	fromSpace := findSpace(spaces, fromSpaceID)
	if fromSpace == nil {
		return fmt.Errorf("%w: space %s", domain.ErrNotFound, fromSpaceID)
	}
	toSpace := findSpace(spaces, toSpaceID)
	if toSpace == nil {
		return fmt.Errorf("%w: space %s", domain.ErrNotFound, toSpaceID)
	}
	fromLoc := fromSpace.Location(fromLocationID)
	if fromLoc == nil {
		return fmt.Errorf("%w: location %s", domain.ErrNotFound, fromLocationID)
	}
	toLoc := toSpace.Location(toLocationID)
	if toLoc == nil {
		return fmt.Errorf("%w: location %s", domain.ErrNotFound, toLocationID)
	}
	idx := fromLoc.ItemIndex(itemID)
	if idx < 0 {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}
	item := fromLoc.Items[idx]

	crossSpace := fromSpaceID != toSpaceID
	oldPhoto, oldUpdatedAt := item.PhotoPath, item.UpdatedAt
	if crossSpace && oldPhoto != "" {
		copied, err := s.storePhoto(ctx, oldPhoto, toSpaceID+"_"+filepath.Base(photostore.SourcePath(oldPhoto)))
		if err != nil {
			return err
		}
		item.PhotoPath = copied
	}
	newPhoto := item.PhotoPath
	item.UpdatedAt = s.timestamp()

	fromLoc.Items = append(fromLoc.Items[:idx], fromLoc.Items[idx+1:]...)
	toLoc.Items = append(toLoc.Items, item)

	if err := s.spaces.Upsert(ctx, fromSpace); err != nil {
		if newPhoto != oldPhoto {
			s.photos.Delete(ctx, newPhoto)
		}
		return err
	}
	if crossSpace {
		if err := s.spaces.Upsert(ctx, toSpace); err != nil {
			// The source space no longer holds the item on disk. Put it back.
			toLoc.Items = toLoc.Items[:len(toLoc.Items)-1]
			item.PhotoPath, item.UpdatedAt = oldPhoto, oldUpdatedAt
			fromLoc.Items = slices.Insert(fromLoc.Items, idx, item)
			if rerr := s.spaces.Upsert(ctx, fromSpace); rerr != nil {
				s.logger.Error("failed to restore item after failed move", "item_id", itemID, "space_id", fromSpaceID, "error", rerr)
				return err
			}
			if newPhoto != oldPhoto {
				s.photos.Delete(ctx, newPhoto)
			}
			return err
		}
		if oldPhoto != "" && oldPhoto != newPhoto {
			s.photos.Delete(ctx, oldPhoto)
		}
	}

	s.logger.Info("item moved", "item_id", itemID, "from_space", fromSpaceID, "to_space", toSpaceID, "to_location", toLocationID)
	return nil
}

// Search returns every item whose description contains query, ignoring
// case, in space, location and item storage order.
func (s *SpaceService) Search(ctx context.Context, query string) ([]*domain.SearchResult, error) {
	// A Caser is stateful, so each search gets its own.
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	if needle == "" {
		return []*domain.SearchResult{}, nil
	}

	spaces, err := s.spaces.List(ctx)
	if err != nil {
		return nil, err
	}

	results := []*domain.SearchResult{}
	for _, space := range spaces {
		for _, loc := range space.Locations {
			for _, item := range loc.Items {
				if strings.Contains(fold.String(item.Description), needle) {
					results = append(results, &domain.SearchResult{Item: item, Space: space, Location: loc})
				}
			}
		}
	}
	return results, nil
}

func (s *SpaceService) SpaceSections(ctx context.Context, spaceID string) ([]domain.Section, error) {
	space, err := s.spaces.Get(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return space.Sections(), nil
}

func (s *SpaceService) SpaceMarkers(ctx context.Context, spaceID string) ([]domain.Marker, error) {
	space, err := s.spaces.Get(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return space.Markers(), nil
}

// SuggestDescription asks the vision backend for a short item description of
// the photo at photoSource.
func (s *SpaceService) SuggestDescription(ctx context.Context, photoSource string) (string, error) {
	if s.describer == nil {
		return "", fmt.Errorf("%w: no vision backend configured", domain.ErrValidation)
	}
	if strings.TrimSpace(photoSource) == "" {
		return "", fmt.Errorf("%w: photo is required", domain.ErrValidation)
	}

	path := photostore.SourcePath(photoSource)
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open photo: %w", domain.ErrStorageIO, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Error("failed to close photo", "path", path, "error", err)
		}
	}()

	s.logger.Info("vision description started", "path", path)
	desc, err := s.describer.Describe(ctx, f, photostore.ExtToMimeType(path))
	if err != nil {
		return "", fmt.Errorf("failed to describe photo: %w", err)
	}
	s.logger.Info("vision description complete", "path", path, "description", desc)
	return desc, nil
}

// location loads the space and resolves one of its locations.
func (s *SpaceService) location(ctx context.Context, spaceID, locationID string) (*domain.Space, *domain.Location, error) {
	space, err := s.spaces.Get(ctx, spaceID)
	if err != nil {
		return nil, nil, err
	}
	loc := space.Location(locationID)
	if loc == nil {
		return nil, nil, fmt.Errorf("%w: location %s", domain.ErrNotFound, locationID)
	}
	return space, loc, nil
}

// itemPhoto stores photoSource as item_<id>.jpg unless it is already a
// managed file. stored reports whether a copy was made.
func (s *SpaceService) itemPhoto(ctx context.Context, itemID, photoSource string) (path string, stored bool, err error) {
	if s.photos.Contains(photoSource) {
		return photostore.SourcePath(photoSource), false, nil
	}
	path, err = s.storePhoto(ctx, photoSource, "item_"+itemID+".jpg")
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

func (s *SpaceService) timestamp() domain.Timestamp {
	return domain.NewTimestamp(s.now())
}

func (s *SpaceService) storePhoto(ctx context.Context, source, fileName string) (string, error) {
	path, err := s.photos.Store(ctx, source, fileName)
	if err != nil {
		return "", fmt.Errorf("%w: failed to store photo: %w", domain.ErrStorageIO, err)
	}
	return path, nil
}

func (s *SpaceService) deleteItemPhotos(ctx context.Context, loc *domain.Location) {
	for _, item := range loc.Items {
		s.photos.Delete(ctx, item.PhotoPath)
	}
}

func validateItem(photoSource, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if strings.TrimSpace(photoSource) == "" {
		return "", fmt.Errorf("%w: photo is required", domain.ErrValidation)
	}
	return description, nil
}

func findSpace(spaces []*domain.Space, id string) *domain.Space {
	for _, space := range spaces {
		if space.ID == id {
			return space
		}
	}
	return nil
}
