package vision

import (
	"strings"
)

// maxDescriptionLen caps suggestions so a rambling model cannot fill the
// description field.
const maxDescriptionLen = 120

// CleanDescription reduces a model response to a single description line.
// Preamble lines ("Here is...", "I see...", "Based on...") are skipped, list
// markers and surrounding quotes are removed. It returns "" when nothing
// usable remains.
func CleanDescription(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "Here") || strings.HasPrefix(line, "I see") || strings.HasPrefix(line, "Based on") {
			continue
		}

		line = strings.TrimLeft(line, "-*• ")
		line = strings.Trim(line, `"'`+"`")
		line = strings.TrimSuffix(line, ".")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if r := []rune(line); len(r) > maxDescriptionLen {
			line = strings.TrimSpace(string(r[:maxDescriptionLen]))
		}
		return line
	}
	return ""
}
