package domain

import (
	"crypto/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Space is a photographed storage area (a shelf, a drawer, a closet).
// It owns its locations; locations own their items.
type Space struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	PhotoPath     string      `json:"photoPath"`
	ThumbnailPath string      `json:"thumbnailPath"`
	Locations     []*Location `json:"locations"`
}

// Location is a marker on the space photo. X and Y are fractions of the
// photo's width and height.
type Location struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Items []*Item `json:"items"`
}

type Item struct {
	ID          string    `json:"id"`
	PhotoPath   string    `json:"photoPath"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// SearchResult points at a matching item together with the location and
// space that currently hold it.
type SearchResult struct {
	Item     *Item     `json:"item"`
	Space    *Space    `json:"space"`
	Location *Location `json:"location"`
}

// Location returns the location with the given id, or nil.
func (s *Space) Location(id string) *Location {
	for _, loc := range s.Locations {
		if loc.ID == id {
			return loc
		}
	}
	return nil
}

// ItemCount is the number of items across all locations of the space.
func (s *Space) ItemCount() int {
	n := 0
	for _, loc := range s.Locations {
		n += len(loc.Items)
	}
	return n
}

// ItemIndex returns the position of the item in the location, or -1.
func (l *Location) ItemIndex(id string) int {
	for i, item := range l.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Item returns the item with the given id, or nil.
func (l *Location) Item(id string) *Item {
	if i := l.ItemIndex(id); i >= 0 {
		return l.Items[i]
	}
	return nil
}

const idSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const idSuffixLen = 9

// NewID returns a new identifier made of the current Unix time in
// milliseconds followed by a random lowercase alphanumeric suffix.
func NewID() string {
	return newIDAt(time.Now())
}

func newIDAt(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10) + randomSuffix()
}

// randomSuffix maps the bytes of a random UUID onto the base36 alphabet.
func randomSuffix() string {
	u, err := uuid.NewRandom()
	if err != nil {
		// uuid only fails when the system entropy source does.
		_, _ = rand.Read(u[:])
	}
	b := make([]byte, idSuffixLen)
	for i := range b {
		b[i] = idSuffixAlphabet[int(u[i])%len(idSuffixAlphabet)]
	}
	return string(b)
}
