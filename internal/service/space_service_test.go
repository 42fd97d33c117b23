package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shelfmap/internal/db"
	"github.com/vbonduro/shelfmap/internal/domain"
	kvsqlite "github.com/vbonduro/shelfmap/internal/kv/sqlite"
	"github.com/vbonduro/shelfmap/internal/store"
)

const managedDir = "/managed/"

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	files    map[string]string // stored path -> source
	deleted  []string
	storeErr error
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{files: make(map[string]string)}
}

func (s *stubPhotoStore) Store(_ context.Context, source, fileName string) (string, error) {
	if s.storeErr != nil {
		return "", s.storeErr
	}
	path := managedDir + fileName
	s.files[path] = source
	return path, nil
}

func (s *stubPhotoStore) Delete(_ context.Context, path string) {
	s.deleted = append(s.deleted, path)
	delete(s.files, path)
}

func (s *stubPhotoStore) Contains(path string) bool {
	return strings.HasPrefix(path, managedDir)
}

func (s *stubPhotoStore) Open(_ context.Context, path string) (io.ReadCloser, string, error) {
	return nil, "", errors.New("not implemented")
}

// stubDescriber is a minimal vision.Describer for tests.
type stubDescriber struct {
	desc     string
	err      error
	mimeType string
	data     []byte
}

func (d *stubDescriber) Describe(_ context.Context, r io.Reader, mimeType string) (string, error) {
	d.mimeType = mimeType
	d.data, _ = io.ReadAll(r)
	return d.desc, d.err
}

// failingRepo wraps a repository and fails writes once failUpserts is set,
// or only the upsert numbered failOn.
type failingRepo struct {
	spaceRepository
	failUpserts bool
	failOn      int
	upserts     int
}

func (r *failingRepo) Upsert(ctx context.Context, space *domain.Space) error {
	r.upserts++
	if r.failUpserts || r.upserts == r.failOn {
		return fmt.Errorf("%w: disk full", domain.ErrStorageIO)
	}
	return r.spaceRepository.Upsert(ctx, space)
}

type testEnv struct {
	svc    *SpaceService
	photos *stubPhotoStore
	repo   *failingRepo
	clock  *time.Time
}

func newTestService(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "shelfmap.db"))
	require.NoError(t, err)
	backend := kvsqlite.New(d)
	t.Cleanup(func() { _ = backend.Close() })

	repo := &failingRepo{spaceRepository: store.NewSpaceStore(backend, slog.Default())}
	photos := newStubPhotoStore()

	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	env := &testEnv{photos: photos, repo: repo, clock: &clock}

	seq := 0
	base := []Option{
		WithClock(func() time.Time { return *env.clock }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id%03d", seq)
		}),
	}
	env.svc = NewSpaceService(repo, photos, slog.Default(), append(base, opts...)...)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

func mustCreateSpace(t *testing.T, svc *SpaceService, title string) *domain.Space {
	t.Helper()
	space, err := svc.CreateSpace(context.Background(), title, "file:///picker/"+title+".jpg")
	require.NoError(t, err)
	return space
}

func mustAddLocation(t *testing.T, svc *SpaceService, spaceID string) *domain.Location {
	t.Helper()
	loc, err := svc.AddLocation(context.Background(), spaceID, 0.5, 0.5)
	require.NoError(t, err)
	return loc
}

func mustAddItem(t *testing.T, svc *SpaceService, spaceID, locationID, description string) *domain.Item {
	t.Helper()
	item, err := svc.AddItem(context.Background(), spaceID, locationID, "/picker/"+description+".jpg", description)
	require.NoError(t, err)
	return item
}

func TestSpaceServiceCreateSpace(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	space, err := env.svc.CreateSpace(ctx, "  Closet ", "file:///picker/closet.jpg")
	require.NoError(t, err)
	assert.Equal(t, "id001", space.ID)
	assert.Equal(t, "Closet", space.Title)
	assert.Equal(t, managedDir+"space_id001.jpg", space.PhotoPath)
	assert.Equal(t, space.PhotoPath, space.ThumbnailPath)
	assert.Equal(t, "file:///picker/closet.jpg", env.photos.files[space.PhotoPath])

	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, "Closet", got.Title)
	assert.NotEmpty(t, got.PhotoPath)
	assert.NotNil(t, got.Locations)
	assert.Empty(t, got.Locations)
}

func TestSpaceServiceCreateSpaceValidation(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	_, err := env.svc.CreateSpace(ctx, "   ", "/picker/a.jpg")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.svc.CreateSpace(ctx, "Closet", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, env.photos.files)
	spaces, err := env.svc.ListSpaces(ctx)
	require.NoError(t, err)
	assert.Empty(t, spaces)
}

func TestSpaceServiceCreateSpacePhotoFailure(t *testing.T) {
	env := newTestService(t)
	env.photos.storeErr = errors.New("no space left on device")

	_, err := env.svc.CreateSpace(context.Background(), "Closet", "/picker/a.jpg")
	assert.ErrorIs(t, err, domain.ErrStorageIO)
	assert.Equal(t, 0, env.repo.upserts)
}

func TestSpaceServiceCreateSpaceWriteFailureRemovesPhoto(t *testing.T) {
	env := newTestService(t)
	env.repo.failUpserts = true

	_, err := env.svc.CreateSpace(context.Background(), "Closet", "/picker/a.jpg")
	assert.ErrorIs(t, err, domain.ErrStorageIO)
	assert.Empty(t, env.photos.files)
	assert.Equal(t, []string{managedDir + "space_id001.jpg"}, env.photos.deleted)
}

func TestSpaceServiceRenameSpace(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")

	require.NoError(t, env.svc.RenameSpace(ctx, space.ID, " Hall Closet "))
	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hall Closet", got.Title)

	err = env.svc.RenameSpace(ctx, space.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = env.svc.RenameSpace(ctx, "missing", "Garage")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSpaceServiceDeleteSpaceCascades(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	space := mustCreateSpace(t, env.svc, "Closet")
	other := mustCreateSpace(t, env.svc, "Garage")
	loc1 := mustAddLocation(t, env.svc, space.ID)
	loc2 := mustAddLocation(t, env.svc, space.ID)
	i1 := mustAddItem(t, env.svc, space.ID, loc1.ID, "blue sweater")
	i2 := mustAddItem(t, env.svc, space.ID, loc2.ID, "red scarf")

	require.NoError(t, env.svc.DeleteSpace(ctx, space.ID))

	_, err := env.svc.GetSpace(ctx, space.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The shared photo/thumbnail path is deleted once.
	assert.ElementsMatch(t, []string{i1.PhotoPath, i2.PhotoPath, space.PhotoPath}, env.photos.deleted)
	assert.Contains(t, env.photos.files, other.PhotoPath)

	spaces, err := env.svc.ListSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, other.ID, spaces[0].ID)

	results, err := env.svc.Search(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSpaceServiceDeleteSpaceSeparateThumbnail(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	space := mustCreateSpace(t, env.svc, "Closet")
	space.ThumbnailPath = managedDir + "thumb_" + space.ID + ".jpg"
	require.NoError(t, env.repo.Upsert(ctx, space))

	require.NoError(t, env.svc.DeleteSpace(ctx, space.ID))
	assert.ElementsMatch(t, []string{space.PhotoPath, space.ThumbnailPath}, env.photos.deleted)
}

func TestSpaceServiceDeleteSpaceNotFound(t *testing.T) {
	env := newTestService(t)

	err := env.svc.DeleteSpace(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSpaceServiceAddLocation(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")

	loc, err := env.svc.AddLocation(ctx, space.ID, 0.25, 0.75)
	require.NoError(t, err)
	assert.Equal(t, 0.25, loc.X)
	assert.Equal(t, 0.75, loc.Y)
	assert.NotNil(t, loc.Items)

	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	require.Len(t, got.Locations, 1)
	assert.Equal(t, loc.ID, got.Locations[0].ID)
	assert.Empty(t, got.Locations[0].Items)
}

func TestSpaceServiceAddLocationErrors(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")

	_, err := env.svc.AddLocation(ctx, "missing", 0.5, 0.5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, p := range [][2]float64{{-0.1, 0.5}, {0.5, 1.1}, {2, 2}} {
		_, err := env.svc.AddLocation(ctx, space.ID, p[0], p[1])
		assert.ErrorIs(t, err, domain.ErrValidation, "point %v", p)
	}

	// Edges of the photo are valid.
	_, err = env.svc.AddLocation(ctx, space.ID, 0, 1)
	assert.NoError(t, err)
}

func TestSpaceServiceDeleteLocation(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")
	keep := mustAddLocation(t, env.svc, space.ID)
	drop := mustAddLocation(t, env.svc, space.ID)
	kept := mustAddItem(t, env.svc, space.ID, keep.ID, "hat")
	gone := mustAddItem(t, env.svc, space.ID, drop.ID, "gloves")

	require.NoError(t, env.svc.DeleteLocation(ctx, space.ID, drop.ID))

	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	require.Len(t, got.Locations, 1)
	assert.Equal(t, keep.ID, got.Locations[0].ID)
	assert.Equal(t, []string{gone.PhotoPath}, env.photos.deleted)
	assert.Contains(t, env.photos.files, kept.PhotoPath)

	err = env.svc.DeleteLocation(ctx, space.ID, drop.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSpaceServiceAddItem(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")
	loc := mustAddLocation(t, env.svc, space.ID)

	item, err := env.svc.AddItem(ctx, space.ID, loc.ID, "file:///picker/sweater.jpg", " blue sweater ")
	require.NoError(t, err)
	assert.Equal(t, "blue sweater", item.Description)
	assert.Equal(t, managedDir+"item_"+item.ID+".jpg", item.PhotoPath)
	assert.True(t, item.CreatedAt.Time.Equal(*env.clock))
	assert.True(t, item.UpdatedAt.Time.Equal(*env.clock))

	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	stored := got.Location(loc.ID).Item(item.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "blue sweater", stored.Description)
	assert.Equal(t, item.PhotoPath, stored.PhotoPath)
}

func TestSpaceServiceAddItemKeepsManagedPhoto(t *testing.T) {
	env := newTestService(t)
	space := mustCreateSpace(t, env.svc, "Closet")
	loc := mustAddLocation(t, env.svc, space.ID)
	before := len(env.photos.files)

	item, err := env.svc.AddItem(context.Background(), space.ID, loc.ID, managedDir+"item_existing.jpg", "boots")
	require.NoError(t, err)
	assert.Equal(t, managedDir+"item_existing.jpg", item.PhotoPath)
	assert.Len(t, env.photos.files, before)
}

func TestSpaceServiceAddItemErrors(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")
	loc := mustAddLocation(t, env.svc, space.ID)

	_, err := env.svc.AddItem(ctx, space.ID, loc.ID, "/picker/a.jpg", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.svc.AddItem(ctx, space.ID, loc.ID, "", "boots")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.svc.AddItem(ctx, "missing", loc.ID, "/picker/a.jpg", "boots")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.AddItem(ctx, space.ID, "missing", "/picker/a.jpg", "boots")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	env.photos.storeErr = errors.New("permission denied")
	_, err = env.svc.AddItem(ctx, space.ID, loc.ID, "/picker/a.jpg", "boots")
	assert.ErrorIs(t, err, domain.ErrStorageIO)

	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Location(loc.ID).Items)
}

func TestSpaceServiceAddItemWriteFailureRemovesPhoto(t *testing.T) {
	env := newTestService(t)
	space := mustCreateSpace(t, env.svc, "Closet")
	loc := mustAddLocation(t, env.svc, space.ID)
	env.repo.failUpserts = true

	_, err := env.svc.AddItem(context.Background(), space.ID, loc.ID, "/picker/a.jpg", "boots")
	assert.ErrorIs(t, err, domain.ErrStorageIO)
	require.Len(t, env.photos.deleted, 1)
	assert.True(t, strings.HasPrefix(env.photos.deleted[0], managedDir+"item_"))
}

func TestSpaceServiceUpdateItem(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")
	loc := mustAddLocation(t, env.svc, space.ID)
	item := mustAddItem(t, env.svc, space.ID, loc.ID, "sweater")

	env.advance(time.Hour)
	updated, err := env.svc.UpdateItem(ctx, space.ID, loc.ID, item.ID, item.PhotoPath, "wool sweater")
	require.NoError(t, err)
	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, "wool sweater", updated.Description)
	assert.Equal(t, item.PhotoPath, updated.PhotoPath)
	assert.True(t, updated.CreatedAt.Time.Equal(item.CreatedAt.Time))
	assert.True(t, updated.UpdatedAt.Time.After(item.UpdatedAt.Time))
	assert.Empty(t, env.photos.deleted)

	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	stored := got.Location(loc.ID).Items
	require.Len(t, stored, 1)
	assert.Equal(t, "wool sweater", stored[0].Description)
	assert.WithinDuration(t, item.CreatedAt.Time, stored[0].CreatedAt.Time, time.Millisecond)
}

func TestSpaceServiceUpdateItemNewPhoto(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")
	loc := mustAddLocation(t, env.svc, space.ID)

	// An item whose photo lives under another name, e.g. after a move.
	item, err := env.svc.AddItem(ctx, space.ID, loc.ID, managedDir+"other_item.jpg", "sweater")
	require.NoError(t, err)

	updated, err := env.svc.UpdateItem(ctx, space.ID, loc.ID, item.ID, "/picker/new.jpg", "sweater")
	require.NoError(t, err)
	assert.Equal(t, managedDir+"item_"+item.ID+".jpg", updated.PhotoPath)
	assert.Equal(t, "/picker/new.jpg", env.photos.files[updated.PhotoPath])
	assert.Equal(t, []string{managedDir + "other_item.jpg"}, env.photos.deleted)
}

func TestSpaceServiceUpdateItemErrors(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")
	loc := mustAddLocation(t, env.svc, space.ID)
	item := mustAddItem(t, env.svc, space.ID, loc.ID, "sweater")

	_, err := env.svc.UpdateItem(ctx, space.ID, loc.ID, item.ID, item.PhotoPath, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.svc.UpdateItem(ctx, space.ID, loc.ID, item.ID, "", "sweater")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.svc.UpdateItem(ctx, space.ID, loc.ID, "missing", item.PhotoPath, "sweater")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// An unknown item is reported before its inputs are checked.
	_, err = env.svc.UpdateItem(ctx, space.ID, loc.ID, "missing", "", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSpaceServiceDeleteItemTwice(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")
	loc := mustAddLocation(t, env.svc, space.ID)
	a := mustAddItem(t, env.svc, space.ID, loc.ID, "hat")
	b := mustAddItem(t, env.svc, space.ID, loc.ID, "gloves")
	c := mustAddItem(t, env.svc, space.ID, loc.ID, "scarf")

	require.NoError(t, env.svc.DeleteItem(ctx, space.ID, loc.ID, b.ID))
	err := env.svc.DeleteItem(ctx, space.ID, loc.ID, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{b.PhotoPath}, env.photos.deleted)

	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	items := got.Location(loc.ID).Items
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, c.ID, items[1].ID)
}

func TestSpaceServiceMoveItemWithinSpace(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")
	from := mustAddLocation(t, env.svc, space.ID)
	to := mustAddLocation(t, env.svc, space.ID)
	item := mustAddItem(t, env.svc, space.ID, from.ID, "scarf")
	upserts := env.repo.upserts

	env.advance(time.Minute)
	require.NoError(t, env.svc.MoveItem(ctx, space.ID, from.ID, item.ID, space.ID, to.ID))
	assert.Equal(t, upserts+1, env.repo.upserts)

	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Location(from.ID).Items)
	moved := got.Location(to.ID).Item(item.ID)
	require.NotNil(t, moved)
	assert.Equal(t, item.PhotoPath, moved.PhotoPath)
	assert.True(t, moved.UpdatedAt.Time.After(item.UpdatedAt.Time))
	assert.Empty(t, env.photos.deleted)
}

func TestSpaceServiceMoveItemAcrossSpaces(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	s1 := mustCreateSpace(t, env.svc, "Closet")
	l1 := mustAddLocation(t, env.svc, s1.ID)
	s2 := mustCreateSpace(t, env.svc, "Garage")
	l2 := mustAddLocation(t, env.svc, s2.ID)
	item := mustAddItem(t, env.svc, s1.ID, l1.ID, "scarf")
	sibling := mustAddItem(t, env.svc, s1.ID, l1.ID, "hat")
	upserts := env.repo.upserts

	require.NoError(t, env.svc.MoveItem(ctx, s1.ID, l1.ID, item.ID, s2.ID, l2.ID))
	assert.Equal(t, upserts+2, env.repo.upserts)

	wantPath := managedDir + s2.ID + "_item_" + item.ID + ".jpg"
	assert.Equal(t, item.PhotoPath, env.photos.files[wantPath])
	assert.Equal(t, []string{item.PhotoPath}, env.photos.deleted)

	src, err := env.svc.GetSpace(ctx, s1.ID)
	require.NoError(t, err)
	require.Len(t, src.Location(l1.ID).Items, 1)
	assert.Equal(t, sibling.ID, src.Location(l1.ID).Items[0].ID)

	dst, err := env.svc.GetSpace(ctx, s2.ID)
	require.NoError(t, err)
	moved := dst.Location(l2.ID).Item(item.ID)
	require.NotNil(t, moved)
	assert.Equal(t, wantPath, moved.PhotoPath)
}

func TestSpaceServiceMoveItemDestinationWriteFailureRestoresSource(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	s1 := mustCreateSpace(t, env.svc, "Closet")
	l1 := mustAddLocation(t, env.svc, s1.ID)
	s2 := mustCreateSpace(t, env.svc, "Garage")
	l2 := mustAddLocation(t, env.svc, s2.ID)
	first := mustAddItem(t, env.svc, s1.ID, l1.ID, "hat")
	item := mustAddItem(t, env.svc, s1.ID, l1.ID, "scarf")
	last := mustAddItem(t, env.svc, s1.ID, l1.ID, "gloves")

	// The source write succeeds and the destination write fails.
	env.repo.failOn = env.repo.upserts + 2
	env.advance(time.Minute)
	err := env.svc.MoveItem(ctx, s1.ID, l1.ID, item.ID, s2.ID, l2.ID)
	assert.ErrorIs(t, err, domain.ErrStorageIO)

	src, err := env.svc.GetSpace(ctx, s1.ID)
	require.NoError(t, err)
	items := src.Location(l1.ID).Items
	require.Len(t, items, 3)
	assert.Equal(t, []string{first.ID, item.ID, last.ID}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, item.PhotoPath, items[1].PhotoPath)
	assert.True(t, items[1].UpdatedAt.Time.Equal(item.UpdatedAt.Time))

	dst, err := env.svc.GetSpace(ctx, s2.ID)
	require.NoError(t, err)
	assert.Empty(t, dst.Location(l2.ID).Items)

	results, err := env.svc.Search(ctx, "scarf")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, s1.ID, results[0].Space.ID)

	copied := managedDir + s2.ID + "_item_" + item.ID + ".jpg"
	assert.NotContains(t, env.photos.files, copied)
	assert.Contains(t, env.photos.files, item.PhotoPath)
	assert.Equal(t, []string{copied}, env.photos.deleted)
}

func TestSpaceServiceMoveItemSourceWriteFailureRemovesCopy(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	s1 := mustCreateSpace(t, env.svc, "Closet")
	l1 := mustAddLocation(t, env.svc, s1.ID)
	s2 := mustCreateSpace(t, env.svc, "Garage")
	l2 := mustAddLocation(t, env.svc, s2.ID)
	item := mustAddItem(t, env.svc, s1.ID, l1.ID, "scarf")

	env.repo.failOn = env.repo.upserts + 1
	err := env.svc.MoveItem(ctx, s1.ID, l1.ID, item.ID, s2.ID, l2.ID)
	assert.ErrorIs(t, err, domain.ErrStorageIO)

	got, err := env.svc.GetSpace(ctx, s1.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Location(l1.ID).Item(item.ID))
	assert.Equal(t, []string{managedDir + s2.ID + "_item_" + item.ID + ".jpg"}, env.photos.deleted)
	assert.Contains(t, env.photos.files, item.PhotoPath)
}

func TestSpaceServiceItemTimestampsKeepMilliseconds(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	*env.clock = time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	space := mustCreateSpace(t, env.svc, "Closet")
	loc := mustAddLocation(t, env.svc, space.ID)

	item, err := env.svc.AddItem(ctx, space.ID, loc.ID, "/picker/scarf.jpg", "scarf")
	require.NoError(t, err)

	got, err := env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	stored := got.Location(loc.ID).Item(item.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.CreatedAt.Time.Equal(item.CreatedAt.Time), "returned %s, stored %s", item.CreatedAt, stored.CreatedAt)
	assert.Equal(t, 123000000, stored.CreatedAt.Nanosecond())

	// Two edits within one second stay ordered.
	env.advance(400 * time.Millisecond)
	updated, err := env.svc.UpdateItem(ctx, space.ID, loc.ID, item.ID, item.PhotoPath, "red scarf")
	require.NoError(t, err)
	got, err = env.svc.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	stored = got.Location(loc.ID).Item(item.ID)
	assert.True(t, stored.UpdatedAt.Time.Equal(updated.UpdatedAt.Time))
	assert.True(t, stored.UpdatedAt.Time.After(stored.CreatedAt.Time))
}

func TestSpaceServiceMoveItemNotFound(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	s1 := mustCreateSpace(t, env.svc, "Closet")
	l1 := mustAddLocation(t, env.svc, s1.ID)
	s2 := mustCreateSpace(t, env.svc, "Garage")
	l2 := mustAddLocation(t, env.svc, s2.ID)
	item := mustAddItem(t, env.svc, s1.ID, l1.ID, "scarf")

	cases := []struct {
		name                                    string
		fromSpace, fromLoc, itemID, toSpace, to string
	}{
		{"from space", "missing", l1.ID, item.ID, s2.ID, l2.ID},
		{"from location", s1.ID, "missing", item.ID, s2.ID, l2.ID},
		{"item", s1.ID, l1.ID, "missing", s2.ID, l2.ID},
		{"to space", s1.ID, l1.ID, item.ID, "missing", l2.ID},
		{"to location", s1.ID, l1.ID, item.ID, s2.ID, "missing"},
		{"location of other space", s1.ID, l1.ID, item.ID, s2.ID, l1.ID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := env.svc.MoveItem(ctx, tc.fromSpace, tc.fromLoc, tc.itemID, tc.toSpace, tc.to)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}

	got, err := env.svc.GetSpace(ctx, s1.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Location(l1.ID).Item(item.ID))
}

func TestSpaceServiceMoveItemPhotoFailureLeavesTreeUntouched(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	s1 := mustCreateSpace(t, env.svc, "Closet")
	l1 := mustAddLocation(t, env.svc, s1.ID)
	s2 := mustCreateSpace(t, env.svc, "Garage")
	l2 := mustAddLocation(t, env.svc, s2.ID)
	item := mustAddItem(t, env.svc, s1.ID, l1.ID, "scarf")

	env.photos.storeErr = errors.New("read-only filesystem")
	err := env.svc.MoveItem(ctx, s1.ID, l1.ID, item.ID, s2.ID, l2.ID)
	assert.ErrorIs(t, err, domain.ErrStorageIO)

	src, err := env.svc.GetSpace(ctx, s1.ID)
	require.NoError(t, err)
	assert.NotNil(t, src.Location(l1.ID).Item(item.ID))
	dst, err := env.svc.GetSpace(ctx, s2.ID)
	require.NoError(t, err)
	assert.Empty(t, dst.Location(l2.ID).Items)
}

func TestSpaceServiceSearch(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Basement")
	loc := mustAddLocation(t, env.svc, space.ID)
	box := mustAddItem(t, env.svc, space.ID, loc.ID, "Cardboard BOX")
	mustAddItem(t, env.svc, space.ID, loc.ID, "crate")

	results, err := env.svc.Search(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	results, err = env.svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = env.svc.Search(ctx, " box ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, box.ID, results[0].Item.ID)
	assert.Equal(t, loc.ID, results[0].Location.ID)
	assert.Equal(t, space.ID, results[0].Space.ID)
}

func TestSpaceServiceSearchOrder(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	s1 := mustCreateSpace(t, env.svc, "Closet")
	l1 := mustAddLocation(t, env.svc, s1.ID)
	l2 := mustAddLocation(t, env.svc, s1.ID)
	s2 := mustCreateSpace(t, env.svc, "Garage")
	l3 := mustAddLocation(t, env.svc, s2.ID)

	c := mustAddItem(t, env.svc, s2.ID, l3.ID, "paint box")
	b := mustAddItem(t, env.svc, s1.ID, l2.ID, "shoe box")
	a := mustAddItem(t, env.svc, s1.ID, l1.ID, "tool box")
	a2 := mustAddItem(t, env.svc, s1.ID, l1.ID, "box of cables")

	results, err := env.svc.Search(ctx, "BOX")
	require.NoError(t, err)
	var ids []string
	for _, r := range results {
		ids = append(ids, r.Item.ID)
	}
	assert.Equal(t, []string{a.ID, a2.ID, b.ID, c.ID}, ids)
}

func TestSpaceServiceClosetScenario(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	s := mustCreateSpace(t, env.svc, "Closet")
	l, err := env.svc.AddLocation(ctx, s.ID, 0.5, 0.5)
	require.NoError(t, err)
	mustAddItem(t, env.svc, s.ID, l.ID, "blue sweater")
	i2 := mustAddItem(t, env.svc, s.ID, l.ID, "red scarf")

	results, err := env.svc.Search(ctx, "scarf")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, i2.ID, results[0].Item.ID)
	assert.Equal(t, l.ID, results[0].Location.ID)
	assert.Equal(t, s.ID, results[0].Space.ID)

	s2 := mustCreateSpace(t, env.svc, "Dresser")
	l2 := mustAddLocation(t, env.svc, s2.ID)
	require.NoError(t, env.svc.MoveItem(ctx, s.ID, l.ID, i2.ID, s2.ID, l2.ID))

	results, err = env.svc.Search(ctx, "scarf")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, i2.ID, results[0].Item.ID)
	assert.Equal(t, l2.ID, results[0].Location.ID)
	assert.Equal(t, s2.ID, results[0].Space.ID)
}

func TestSpaceServiceSectionsAndMarkers(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	space := mustCreateSpace(t, env.svc, "Closet")
	full := mustAddLocation(t, env.svc, space.ID)
	empty := mustAddLocation(t, env.svc, space.ID)
	item := mustAddItem(t, env.svc, space.ID, full.ID, "hat")

	sections, err := env.svc.SpaceSections(ctx, space.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, full.ID, sections[0].LocationID)
	require.Len(t, sections[0].Rows, 1)
	row, ok := sections[0].Rows[0].(domain.ItemRow)
	require.True(t, ok)
	assert.Equal(t, item.ID, row.Item.ID)
	assert.Equal(t, empty.ID, sections[1].LocationID)
	assert.Equal(t, []domain.Row{domain.EmptyRow{}}, sections[1].Rows)

	markers, err := env.svc.SpaceMarkers(ctx, space.ID)
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, 1, markers[0].ItemCount)
	assert.Equal(t, 0, markers[1].ItemCount)

	_, err = env.svc.SpaceSections(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.svc.SpaceMarkers(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSpaceServiceGenerateID(t *testing.T) {
	svc := NewSpaceService(nil, nil, slog.Default())
	a := svc.GenerateID()
	b := svc.GenerateID()
	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 13)
}

func TestSpaceServiceSuggestDescription(t *testing.T) {
	describer := &stubDescriber{desc: "red scarf"}
	env := newTestService(t, WithDescriber(describer))

	path := filepath.Join(t.TempDir(), "scarf.png")
	require.NoError(t, os.WriteFile(path, []byte("png bytes"), 0600))

	desc, err := env.svc.SuggestDescription(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "red scarf", desc)
	assert.Equal(t, "image/png", describer.mimeType)
	assert.Equal(t, []byte("png bytes"), describer.data)
}

func TestSpaceServiceSuggestDescriptionErrors(t *testing.T) {
	ctx := context.Background()

	env := newTestService(t)
	_, err := env.svc.SuggestDescription(ctx, "/picker/a.jpg")
	assert.ErrorIs(t, err, domain.ErrValidation)

	describer := &stubDescriber{err: errors.New("model offline")}
	env = newTestService(t, WithDescriber(describer))

	_, err = env.svc.SuggestDescription(ctx, filepath.Join(t.TempDir(), "missing.jpg"))
	assert.ErrorIs(t, err, domain.ErrStorageIO)

	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0600))
	_, err = env.svc.SuggestDescription(ctx, path)
	assert.ErrorContains(t, err, "model offline")
}
