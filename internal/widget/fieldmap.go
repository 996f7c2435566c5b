package widget

import (
	"errors"
	"fmt"
	"strconv"
)

// Key names one user-editable entry of a widget config.
type Key string

const (
	KeyXField      Key = "xField"
	KeyYField      Key = "yField"
	KeyColorField  Key = "colorField"
	KeySeriesField Key = "seriesField"
	KeyShapeField  Key = "shapeField"
	KeySizeField   Key = "sizeField"
	KeyBinField    Key = "binField"
	KeyStack       Key = "stack"
	KeySort        Key = "sort"
	KeyGroup       Key = "group"
	KeyNormalize   Key = "normalize"
	KeyPercent     Key = "percent"
	KeyInnerRadius Key = "innerRadius"
	KeyPoint       Key = "point"
	KeyStyle       Key = "style"
	KeyLegend      Key = "legend"
	KeyLabel       Key = "label"
	KeyTooltip     Key = "tooltip"
	KeyInteraction Key = "interaction"
	KeyChildren    Key = "children"
)

// ByNone is the sentinel for "no column selected" in sort/group by options.
// Selecting it clears the whole option instead of leaving a dangling object.
const ByNone = "none"

// ErrNoColumns is returned by Resolve when the data source exposed no columns.
var ErrNoColumns = errors.New("no columns available")

// Columns partitions the data source columns by type. All is the full set;
// String and Numeric are the disjoint per-type subsets feeding constrained
// selectors.
type Columns struct {
	String  []string `json:"string"`
	Numeric []string `json:"numeric"`
	All     []string `json:"all"`
}

func (c Columns) contains(name string) bool {
	for _, col := range c.All {
		if col == name {
			return true
		}
	}
	return false
}

// applicability is the static chart-type → editable-keys table. A key absent
// from a type's row must not be rendered or edited for that type.
var applicability = map[ChartType][]Key{
	ChartBar:       {KeyXField, KeyYField, KeyColorField, KeyStack, KeySort, KeyGroup, KeyNormalize, KeyPercent, KeyStyle, KeyLegend, KeyLabel, KeyTooltip},
	ChartColumn:    {KeyXField, KeyYField, KeyColorField, KeyStack, KeySort, KeyGroup, KeyNormalize, KeyPercent, KeyStyle, KeyLegend, KeyLabel, KeyTooltip},
	ChartLine:      {KeyXField, KeyYField, KeyColorField, KeySeriesField, KeySort, KeyPoint, KeyStyle, KeyLegend, KeyLabel, KeyTooltip},
	ChartArea:      {KeyXField, KeyYField, KeyColorField, KeyStack, KeyNormalize, KeyPercent, KeyStyle, KeyLegend, KeyLabel, KeyTooltip},
	ChartScatter:   {KeyXField, KeyYField, KeyColorField, KeyShapeField, KeySizeField, KeyStyle, KeyLegend, KeyTooltip},
	ChartPie:       {KeyYField, KeyColorField, KeyInnerRadius, KeyPercent, KeySort, KeyLegend, KeyLabel, KeyTooltip},
	ChartDualAxes:  {KeyXField, KeyChildren, KeyLegend, KeyTooltip, KeyInteraction},
	ChartHistogram: {KeyBinField, KeyColorField, KeyStyle, KeyLegend, KeyTooltip},
	ChartWordCloud: {KeyXField, KeySizeField, KeyColorField, KeyTooltip},
	ChartCounter:   {KeyYField, KeyLabel},
	ChartStatCard:  {KeyYField, KeyColorField, KeyLabel},
	ChartTable:     {KeySort, KeyGroup},
	ChartText:      {},
}

// Applicable reports whether key k is editable for chart type t.
func Applicable(t ChartType, k Key) bool {
	for _, key := range applicability[t] {
		if key == k {
			return true
		}
	}
	return false
}

// ApplicableKeys returns the editable keys for chart type t in render order.
func ApplicableKeys(t ChartType) []Key {
	keys := applicability[t]
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

// keyTraits records which field-mapping keys accept a literal number or free
// text in addition to a column reference.
var keyTraits = map[Key]struct {
	AllowNumeric bool
	AllowCustom  bool
}{
	KeyXField:      {},
	KeyYField:      {},
	KeyColorField:  {AllowCustom: true},
	KeySeriesField: {},
	KeyShapeField:  {AllowCustom: true},
	KeySizeField:   {AllowNumeric: true, AllowCustom: true},
	KeyBinField:    {AllowNumeric: true, AllowCustom: true},
}

// Control describes one editable config entry: the key, the column choices it
// is constrained to and the input modes it supports.
type Control struct {
	Key     Key         `json:"key"`
	Options []string    `json:"options,omitempty"`
	Modes   []FieldMode `json:"modes,omitempty"`
}

// Resolve returns the editable controls for a chart type given the available
// columns. It never mutates config state; callers merge the user's choices
// into their own Config. An empty column set yields ErrNoColumns.
func Resolve(t ChartType, cols Columns) ([]Control, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown chart type %q", t)
	}
	if len(cols.All) == 0 {
		return nil, ErrNoColumns
	}
	keys := applicability[t]
	out := make([]Control, 0, len(keys))
	for _, k := range keys {
		c := Control{Key: k}
		if opts, constrained := optionsFor(k, cols); constrained {
			c.Options = opts
			c.Modes = modesFor(k)
		}
		out = append(out, c)
	}
	return out, nil
}

// optionsFor returns the column choices for a field-mapping key. Non-mapping
// keys (style, legend, ...) are unconstrained.
func optionsFor(k Key, cols Columns) ([]string, bool) {
	switch k {
	case KeyYField, KeySizeField:
		return cols.Numeric, true
	case KeyXField, KeyColorField, KeySeriesField, KeyShapeField, KeyBinField:
		return cols.All, true
	}
	return nil, false
}

func modesFor(k Key) []FieldMode {
	modes := []FieldMode{ModeField}
	t := keyTraits[k]
	if t.AllowNumeric {
		modes = append(modes, ModeNumeric)
	}
	if t.AllowCustom {
		modes = append(modes, ModeCustom)
	}
	return modes
}

// InferMode classifies a legacy raw value: empty means field mode awaiting a
// pick, a numeric-parseable literal means numeric mode and anything that is
// not a known column is custom text. New configs persist the mode explicitly,
// so this runs only for values decoded without one.
func InferMode(value string, cols Columns) FieldMode {
	if value == "" {
		return ModeField
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return ModeNumeric
	}
	if cols.contains(value) {
		return ModeField
	}
	return ModeCustom
}

// ResolveModes fills in the mode of every field value that was decoded from a
// legacy bare scalar.
func ResolveModes(cfg *Config, cols Columns) {
	for _, k := range []Key{KeyXField, KeyYField, KeyColorField, KeySeriesField, KeyShapeField, KeySizeField, KeyBinField} {
		if slot := cfg.field(k); slot != nil && *slot != nil && (*slot).Mode == "" {
			(*slot).Mode = InferMode((*slot).Value, cols)
		}
	}
	for i := range cfg.Children {
		if f := cfg.Children[i].YField; f != nil && f.Mode == "" {
			f.Mode = InferMode(f.Value, cols)
		}
		if f := cfg.Children[i].ColorField; f != nil && f.Mode == "" {
			f.Mode = InferMode(f.Value, cols)
		}
	}
}

// seriesPalette is the fixed round-robin palette for dual-axes children.
var seriesPalette = [6]string{"#5B8FF9", "#5AD8A6", "#5D7092", "#F6BD16", "#E86452", "#6DC8EC"}

// MaxChildren caps the dual-axes series count by the available numeric
// columns, never more than four.
func MaxChildren(cols Columns) int {
	n := len(cols.Numeric)
	if n > 4 {
		return 4
	}
	return n
}

// AddChild appends a dual-axes series with defaulted type, y field, color and
// axis position. The first child renders as a line, the second as intervals,
// later ones as lines again. The default y field advances through the numeric
// columns, clamping to the last one when the index overruns.
func AddChild(cfg *Config, cols Columns) error {
	if cfg.ChartType != ChartDualAxes {
		return fmt.Errorf("children only apply to %s charts", ChartDualAxes)
	}
	if len(cols.Numeric) == 0 {
		return ErrNoColumns
	}
	idx := len(cfg.Children)
	if idx >= MaxChildren(cols) {
		return fmt.Errorf("at most %d series for the available columns", MaxChildren(cols))
	}
	typ := "line"
	if idx == 1 {
		typ = "interval"
	}
	col := idx
	if col >= len(cols.Numeric) {
		col = len(cols.Numeric) - 1
	}
	pos := AxisLeft
	if idx > 0 {
		pos = AxisRight
	}
	cfg.Children = append(cfg.Children, ChildSeries{
		Type:       typ,
		YField:     &FieldValue{Mode: ModeField, Value: cols.Numeric[col]},
		ColorField: &FieldValue{Mode: ModeCustom, Value: seriesPalette[idx%len(seriesPalette)]},
		Axis:       &AxisSpec{Y: &YAxisSpec{Position: pos}},
	})
	return nil
}

// RemoveChild deletes the series at index i, preserving order.
func RemoveChild(cfg *Config, i int) error {
	if i < 0 || i >= len(cfg.Children) {
		return fmt.Errorf("series index %d out of range", i)
	}
	cfg.Children = append(cfg.Children[:i], cfg.Children[i+1:]...)
	return nil
}

// SetSort applies a sort selection. Disabling, or choosing the none sentinel
// for by, clears the option entirely.
func SetSort(cfg *Config, enabled bool, reverse bool, by string) {
	if !enabled || by == ByNone {
		cfg.Sort = nil
		return
	}
	if !reverse && by == "" {
		cfg.Sort = &SortSpec{bare: true}
		return
	}
	cfg.Sort = &SortSpec{Reverse: reverse, By: by}
}

// SetGroup mirrors SetSort for the group option.
func SetGroup(cfg *Config, enabled bool, reverse bool, by string) {
	if !enabled || by == ByNone {
		cfg.Group = nil
		return
	}
	if !reverse && by == "" {
		cfg.Group = &GroupSpec{bare: true}
		return
	}
	cfg.Group = &GroupSpec{Reverse: reverse, By: by}
}

// StripInapplicable returns a copy of cfg with every key outside the active
// chart type's applicability row cleared.
func StripInapplicable(cfg Config) Config {
	out := Config{ChartType: cfg.ChartType}
	for _, k := range applicability[cfg.ChartType] {
		switch k {
		case KeyXField, KeyYField, KeyColorField, KeySeriesField, KeyShapeField, KeySizeField, KeyBinField:
			if src := cfg.field(k); src != nil && *src != nil {
				v := **src
				*out.field(k) = &v
			}
		case KeyStack:
			out.Stack = cfg.Stack
		case KeySort:
			out.Sort = cfg.Sort
		case KeyGroup:
			out.Group = cfg.Group
		case KeyNormalize:
			out.Normalize = cfg.Normalize
		case KeyPercent:
			out.Percent = cfg.Percent
		case KeyInnerRadius:
			out.InnerRadius = cfg.InnerRadius
		case KeyPoint:
			out.Point = cfg.Point
		case KeyStyle:
			out.Style = cfg.Style
		case KeyLegend:
			out.Legend = cfg.Legend
		case KeyLabel:
			out.Label = cfg.Label
		case KeyTooltip:
			out.Tooltip = cfg.Tooltip
		case KeyInteraction:
			out.Interaction = cfg.Interaction
		case KeyChildren:
			out.Children = cfg.Children
		}
	}
	return out
}
