// README: Dashboard tab and widget models with grid placement.
package widgets

import (
	"encoding/json"
	"time"
)

// Grid bounds. Placements are clamped so a drag can never park a widget
// outside the visible grid.
const (
	GridCols = 12
	GridRows = 8
)

// Known widget types. The frontend renders anything it recognises; the
// backend only validates the type string on create.
const (
	TypeClock   = "clock"
	TypeWeather = "weather"
	TypeMap     = "map"
	TypeChat    = "chat"
	TypeAudio   = "audio"
	TypeText    = "text"
	TypeImage   = "image"
)

var knownTypes = map[string]bool{
	TypeClock:   true,
	TypeWeather: true,
	TypeMap:     true,
	TypeChat:    true,
	TypeAudio:   true,
	TypeText:    true,
	TypeImage:   true,
}

// Tab is a user-defined page of widgets.
type Tab struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Placement is a widget's cell and span on the grid.
type Placement struct {
	Row     int `json:"row"`
	Col     int `json:"col"`
	RowSpan int `json:"row_span"`
	ColSpan int `json:"col_span"`
}

// clamp forces the placement inside the grid, shrinking spans before
// moving the origin.
func (p Placement) clamp() Placement {
	if p.RowSpan < 1 {
		p.RowSpan = 1
	}
	if p.ColSpan < 1 {
		p.ColSpan = 1
	}
	if p.RowSpan > GridRows {
		p.RowSpan = GridRows
	}
	if p.ColSpan > GridCols {
		p.ColSpan = GridCols
	}
	if p.Row < 0 {
		p.Row = 0
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if p.Row+p.RowSpan > GridRows {
		p.Row = GridRows - p.RowSpan
	}
	if p.Col+p.ColSpan > GridCols {
		p.Col = GridCols - p.ColSpan
	}
	return p
}

// Widget is a placed dashboard widget with its settings document.
type Widget struct {
	ID        int64           `json:"id"`
	TabID     int64           `json:"tab_id"`
	Type      string          `json:"type"`
	Placement Placement       `json:"placement"`
	Settings  json.RawMessage `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
