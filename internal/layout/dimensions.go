package layout

// Chart renderers need explicit pixel sizes, so widget content dimensions are
// derived analytically from grid units while a resize drag is in flight and
// reconciled with a real measurement once the layout has settled.

const (
	// RowHeight is the fixed grid row height in pixels.
	RowHeight = 60
	// marginX/marginY are the fixed offsets consumed by widget chrome
	// (padding, header) inside a grid cell.
	marginX = 16
	marginY = 48
)

// Dimensions is a widget content area size in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ContentSize estimates a widget's content dimensions from its grid units at
// the given container width. Used during a resize drag, when measuring the
// DOM is unreliable.
func ContentSize(containerWidth int, bp Breakpoint, it Item) Dimensions {
	cols := Cols[bp]
	if cols == 0 {
		cols = Cols[Xxs]
	}
	cellWidth := containerWidth / cols
	d := Dimensions{
		Width:  it.W*cellWidth - marginX,
		Height: it.H*RowHeight - marginY,
	}
	if d.Width < 0 {
		d.Width = 0
	}
	if d.Height < 0 {
		d.Height = 0
	}
	return d
}

// Measurer reports the settled, rendered size of a widget's content node.
// The boolean is false when the widget is not currently rendered.
type Measurer func(widgetID string) (Dimensions, bool)

// SettledSizes returns the content dimensions of every item at the given
// breakpoint, preferring the measurer's exact values and falling back to the
// analytic estimate for widgets it cannot see.
func SettledSizes(containerWidth int, bp Breakpoint, items []Item, measure Measurer) map[string]Dimensions {
	out := make(map[string]Dimensions, len(items))
	for _, it := range items {
		if measure != nil {
			if d, ok := measure(it.ID); ok {
				out[it.ID] = d
				continue
			}
		}
		out[it.ID] = ContentSize(containerWidth, bp, it)
	}
	return out
}
