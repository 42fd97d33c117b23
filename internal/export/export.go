// Package export writes the space tree out as a JSON document or a
// versioned YAML backup.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/vbonduro/shelfmap/internal/domain"
)

// BackupVersion is the current backup format version.
const BackupVersion = "1.0"

const toolName = "shelfmap"

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Backup is the YAML backup document.
type Backup struct {
	Version    string        `yaml:"version"`
	ExportedAt time.Time     `yaml:"exported_at"`
	Tool       string        `yaml:"tool"`
	Spaces     []SpaceBackup `yaml:"spaces"`
}

type SpaceBackup struct {
	ID            string           `yaml:"id"`
	Title         string           `yaml:"title"`
	PhotoPath     string           `yaml:"photo_path"`
	ThumbnailPath string           `yaml:"thumbnail_path,omitempty"`
	Locations     []LocationBackup `yaml:"locations"`
}

type LocationBackup struct {
	ID    string       `yaml:"id"`
	X     float64      `yaml:"x"`
	Y     float64      `yaml:"y"`
	Items []ItemBackup `yaml:"items"`
}

type ItemBackup struct {
	ID          string    `yaml:"id"`
	Description string    `yaml:"description"`
	PhotoPath   string    `yaml:"photo_path"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Write encodes spaces to w in the given format. JSON output has the same
// shape as the persisted document.
func Write(w io.Writer, spaces []*domain.Space, format string, now time.Time) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(spaces, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(NewBackup(spaces, now))
	default:
		return fmt.Errorf("unsupported format: %s (use 'json' or 'yaml')", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// NewBackup converts the space tree into a Backup stamped with now.
func NewBackup(spaces []*domain.Space, now time.Time) *Backup {
	backup := &Backup{
		Version:    BackupVersion,
		ExportedAt: now.UTC(),
		Tool:       toolName,
		Spaces:     make([]SpaceBackup, 0, len(spaces)),
	}

	for _, space := range spaces {
		sb := SpaceBackup{
			ID:        space.ID,
			Title:     space.Title,
			PhotoPath: space.PhotoPath,
			Locations: make([]LocationBackup, 0, len(space.Locations)),
		}
		if space.ThumbnailPath != space.PhotoPath {
			sb.ThumbnailPath = space.ThumbnailPath
		}
		for _, loc := range space.Locations {
			lb := LocationBackup{ID: loc.ID, X: loc.X, Y: loc.Y, Items: make([]ItemBackup, 0, len(loc.Items))}
			for _, item := range loc.Items {
				lb.Items = append(lb.Items, ItemBackup{
					ID:          item.ID,
					Description: item.Description,
					PhotoPath:   item.PhotoPath,
					CreatedAt:   item.CreatedAt.Time,
					UpdatedAt:   item.UpdatedAt.Time,
				})
			}
			sb.Locations = append(sb.Locations, lb)
		}
		backup.Spaces = append(backup.Spaces, sb)
	}
	return backup
}
