package layout

import "testing"

func TestItemFromDefaults(t *testing.T) {
	it := ItemFrom("w1", Position{})
	if it.W != 6 || it.H != 4 {
		t.Fatalf("defaults = %dx%d, want 6x4", it.W, it.H)
	}
	if it.MinW != 2 || it.MinH != 2 {
		t.Fatalf("min = %dx%d, want 2x2", it.MinW, it.MinH)
	}
	it = ItemFrom("w2", Position{X: 3, Y: 1, W: 1, H: 1})
	if it.W != 2 || it.H != 2 {
		t.Fatalf("floor = %dx%d, want 2x2", it.W, it.H)
	}
	if it.X != 3 || it.Y != 1 {
		t.Fatalf("position = (%d,%d)", it.X, it.Y)
	}
}

func TestFromWidgetsTracksThreeBreakpoints(t *testing.T) {
	l := FromWidgets([]WidgetPosition{{ID: "a", Position: Position{W: 6, H: 4}}})
	if len(l) != len(Tracked) {
		t.Fatalf("layouts = %d, want %d", len(l), len(Tracked))
	}
	for _, bp := range Tracked {
		if len(l[bp]) != 1 || l[bp][0].ID != "a" {
			t.Fatalf("breakpoint %s items = %v", bp, l[bp])
		}
	}
}

func TestBreakpointFor(t *testing.T) {
	cases := map[int]Breakpoint{1400: Lg, 1200: Lg, 1100: Md, 800: Sm, 500: Xs, 200: Xxs}
	for width, want := range cases {
		if got := BreakpointFor(width); got != want {
			t.Fatalf("BreakpointFor(%d) = %s, want %s", width, got, want)
		}
	}
}

func TestContentSize(t *testing.T) {
	it := ItemFrom("a", Position{W: 6, H: 4})
	d := ContentSize(1200, Lg, it)
	// 1200/12 = 100px cells: 6*100-16 wide, 4*60-48 tall
	if d.Width != 584 || d.Height != 192 {
		t.Fatalf("got %+v", d)
	}
}

func TestSettledSizesPrefersMeasurement(t *testing.T) {
	items := []Item{ItemFrom("a", Position{W: 6, H: 4}), ItemFrom("b", Position{W: 6, H: 4})}
	measured := Dimensions{Width: 590, Height: 200}
	sizes := SettledSizes(1200, Lg, items, func(id string) (Dimensions, bool) {
		if id == "a" {
			return measured, true
		}
		return Dimensions{}, false
	})
	if sizes["a"] != measured {
		t.Fatalf("a = %+v, want measured %+v", sizes["a"], measured)
	}
	if sizes["b"] != ContentSize(1200, Lg, items[1]) {
		t.Fatalf("b = %+v, want analytic estimate", sizes["b"])
	}
}
