package domain

import "time"

// Panel dimensions in pixels.
const (
	PanelWidth  = 64
	PanelHeight = 32
)

// Font names the glyph set a label is drawn with.
type Font string

const (
	FontTerminal Font = "terminal" // 6x12 class system font
	FontThumb    Font = "thumb"    // tiny 4x6 class font
)

// Label is a positioned piece of text.
type Label struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color Color  `json:"color"`
	Font  Font   `json:"font"`
}

// Segment is a vertical line in graph-local coordinates, drawn from Top down
// to Bottom inclusive.
type Segment struct {
	Column int   `json:"column"`
	Top    int   `json:"top"`
	Bottom int   `json:"bottom"`
	Color  Color `json:"color"`
}

// Graph is a group of segments placed at an origin on the panel.
type Graph struct {
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Segments []Segment `json:"segments"`
}

// Frame is a complete description of what the panel should show. It is built
// fresh every tick and handed to the display as a value.
type Frame struct {
	Mode       DisplayMode `json:"mode"`
	Labels     []Label     `json:"labels"`
	TempGraph  *Graph      `json:"temp_graph,omitempty"`
	RainGraph  *Graph      `json:"rain_graph,omitempty"`
	RenderedAt time.Time   `json:"rendered_at"`
}

// Label returns the label with the given name.
func (f Frame) Label(name string) (Label, bool) {
	for _, l := range f.Labels {
		if l.Name == name {
			return l, true
		}
	}
	return Label{}, false
}
