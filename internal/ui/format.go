// Package ui formats spaces, locations and search results for the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/vbonduro/shelfmap/internal/domain"
)

var faint = color.New(color.Faint)

// FormatSpace formats a one-line space summary.
func FormatSpace(space *domain.Space) string {
	if space == nil {
		return faint.Sprint("(no space)")
	}
	return fmt.Sprintf("%s %s %s",
		color.GreenString(space.Title),
		faint.Sprint(space.ID),
		faint.Sprintf("(%s, %s)", plural(len(space.Locations), "location"), plural(space.ItemCount(), "item")))
}

// FormatSections renders one block per location section. Empty locations
// show a placeholder row.
func FormatSections(sections []domain.Section, now time.Time) string {
	if len(sections) == 0 {
		return faint.Sprint("  (no locations yet)")
	}

	var b strings.Builder
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			color.CyanString(sec.Title),
			faint.Sprint(sec.LocationID),
			faint.Sprintf("(%s)", plural(sec.ItemCount, "item")))
		for _, row := range sec.Rows {
			switch row := row.(type) {
			case domain.ItemRow:
				fmt.Fprintf(&b, "    %s\n", FormatItem(row.Item, now))
			case domain.EmptyRow:
				fmt.Fprintf(&b, "    %s\n", faint.Sprint("(empty)"))
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatItem formats an item description with its id and last update.
func FormatItem(item *domain.Item, now time.Time) string {
	if item == nil {
		return faint.Sprint("(invalid item)")
	}
	return fmt.Sprintf("%s %s - %s",
		item.Description,
		faint.Sprint(item.ID),
		faint.Sprint(FormatRelativeTime(item.UpdatedAt.Time, now)))
}

// FormatSearchResult formats a match as "description - space / location".
func FormatSearchResult(r *domain.SearchResult) string {
	if r == nil || r.Item == nil || r.Space == nil || r.Location == nil {
		return faint.Sprint("(invalid result)")
	}
	return fmt.Sprintf("%s - %s / %s %s",
		color.GreenString(r.Item.Description),
		r.Space.Title,
		color.CyanString("Location "+lastN(r.Location.ID, 4)),
		faint.Sprintf("(%.2f, %.2f)", r.Location.X, r.Location.Y))
}

// FormatRelativeTime formats t relative to now.
func FormatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	// Handle future times (clock skew, bad data)
	if diff < 0 {
		return color.YellowString("in the future")
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	default:
		return plural(int(diff.Hours()/24), "day") + " ago"
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
