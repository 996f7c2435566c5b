// Package layout maintains per-breakpoint widget placement for dashboards and
// persists it in batched, per-widget writes.
package layout

// Breakpoint names a responsive width class.
type Breakpoint string

const (
	Lg  Breakpoint = "lg"
	Md  Breakpoint = "md"
	Sm  Breakpoint = "sm"
	Xs  Breakpoint = "xs"
	Xxs Breakpoint = "xxs"
)

// Widths maps each breakpoint to its minimum container width in pixels.
var Widths = map[Breakpoint]int{Lg: 1200, Md: 996, Sm: 768, Xs: 480, Xxs: 0}

// Cols maps each breakpoint to its grid column count.
var Cols = map[Breakpoint]int{Lg: 12, Md: 10, Sm: 6, Xs: 4, Xxs: 2}

// Tracked lists the breakpoints whose layouts are tracked explicitly; xs/xxs
// fall back to the grid's own defaults.
var Tracked = []Breakpoint{Lg, Md, Sm}

// BreakpointFor returns the breakpoint active at the given container width.
func BreakpointFor(width int) Breakpoint {
	switch {
	case width >= Widths[Lg]:
		return Lg
	case width >= Widths[Md]:
		return Md
	case width >= Widths[Sm]:
		return Sm
	case width >= Widths[Xs]:
		return Xs
	default:
		return Xxs
	}
}

// Position is the persisted placement of a widget in grid units.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

const (
	defaultW = 6
	defaultH = 4
	minW     = 2
	minH     = 2
)

// Item is one widget's placement within a breakpoint's layout.
type Item struct {
	ID   string `json:"i"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
	MinW int    `json:"minW"`
	MinH int    `json:"minH"`
}

// Position converts the item back to its persisted form.
func (it Item) Position() Position {
	return Position{X: it.X, Y: it.Y, W: it.W, H: it.H}
}

// ItemFrom derives a layout item from a persisted position, defaulting an
// unsized widget to 6x4 and flooring the minimum size at 2x2.
func ItemFrom(id string, pos Position) Item {
	it := Item{ID: id, X: pos.X, Y: pos.Y, W: pos.W, H: pos.H, MinW: minW, MinH: minH}
	if it.W == 0 {
		it.W = defaultW
	}
	if it.H == 0 {
		it.H = defaultH
	}
	if it.W < minW {
		it.W = minW
	}
	if it.H < minH {
		it.H = minH
	}
	return it
}

// Layouts holds the items of every tracked breakpoint.
type Layouts map[Breakpoint][]Item

// WidgetPosition pairs a widget ID with its persisted position.
type WidgetPosition struct {
	ID       string
	Position Position
}

// FromWidgets derives the initial layouts from persisted widget positions,
// one identical item list per tracked breakpoint.
func FromWidgets(widgets []WidgetPosition) Layouts {
	l := make(Layouts, len(Tracked))
	for _, bp := range Tracked {
		items := make([]Item, len(widgets))
		for i, w := range widgets {
			items[i] = ItemFrom(w.ID, w.Position)
		}
		l[bp] = items
	}
	return l
}

// clone copies the layouts deeply so in-memory edits never alias saved state.
func (l Layouts) clone() Layouts {
	out := make(Layouts, len(l))
	for bp, items := range l {
		cp := make([]Item, len(items))
		copy(cp, items)
		out[bp] = cp
	}
	return out
}
