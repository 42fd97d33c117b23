package domain

// Row is one entry of a location section: either an ItemRow or an EmptyRow.
// The unexported method closes the set of variants to this package.
type Row interface {
	isRow()
}

// ItemRow wraps a stored item.
type ItemRow struct {
	Item *Item
}

// EmptyRow stands in for a location that holds no items yet.
type EmptyRow struct{}

func (ItemRow) isRow()  {}
func (EmptyRow) isRow() {}

// Section groups the rows of one location for list rendering.
type Section struct {
	LocationID string
	Title      string
	ItemCount  int
	Rows       []Row
}

// Marker is a location pin drawn over the space photo.
type Marker struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ItemCount int     `json:"itemCount"`
}

const sectionIDSuffixLen = 4

// Sections builds one section per location in storage order. Locations
// without items get a single EmptyRow.
func (s *Space) Sections() []Section {
	sections := make([]Section, 0, len(s.Locations))
	for _, loc := range s.Locations {
		sec := Section{
			LocationID: loc.ID,
			Title:      "Location " + shortID(loc.ID),
			ItemCount:  len(loc.Items),
		}
		if len(loc.Items) == 0 {
			sec.Rows = []Row{EmptyRow{}}
		} else {
			sec.Rows = make([]Row, 0, len(loc.Items))
			for _, item := range loc.Items {
				sec.Rows = append(sec.Rows, ItemRow{Item: item})
			}
		}
		sections = append(sections, sec)
	}
	return sections
}

// Markers returns one marker per location in storage order.
func (s *Space) Markers() []Marker {
	markers := make([]Marker, 0, len(s.Locations))
	for _, loc := range s.Locations {
		markers = append(markers, Marker{ID: loc.ID, X: loc.X, Y: loc.Y, ItemCount: len(loc.Items)})
	}
	return markers
}

func shortID(id string) string {
	if len(id) <= sectionIDSuffixLen {
		return id
	}
	return id[len(id)-sectionIDSuffixLen:]
}
