package widget

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ChartType identifies the rendering shape of a chart widget. The set of
// editable config keys depends on it; see fieldmap.go.
type ChartType string

const (
	ChartBar       ChartType = "bar"
	ChartColumn    ChartType = "column"
	ChartLine      ChartType = "line"
	ChartPie       ChartType = "pie"
	ChartArea      ChartType = "area"
	ChartScatter   ChartType = "scatter"
	ChartDualAxes  ChartType = "dual-axes"
	ChartHistogram ChartType = "histogram"
	ChartWordCloud ChartType = "word-cloud"
	ChartCounter   ChartType = "counter"
	ChartStatCard  ChartType = "stat-card"
	ChartTable     ChartType = "table"
	ChartText      ChartType = "text"
)

var chartTypes = map[ChartType]struct{}{
	ChartBar: {}, ChartColumn: {}, ChartLine: {}, ChartPie: {}, ChartArea: {},
	ChartScatter: {}, ChartDualAxes: {}, ChartHistogram: {}, ChartWordCloud: {},
	ChartCounter: {}, ChartStatCard: {}, ChartTable: {}, ChartText: {},
}

// Valid reports whether t is a known chart type.
func (t ChartType) Valid() bool {
	_, ok := chartTypes[t]
	return ok
}

// ChartTypes returns all known chart types.
func ChartTypes() []ChartType {
	out := make([]ChartType, 0, len(chartTypes))
	for _, t := range []ChartType{ChartBar, ChartColumn, ChartLine, ChartPie, ChartArea,
		ChartScatter, ChartDualAxes, ChartHistogram, ChartWordCloud, ChartCounter,
		ChartStatCard, ChartTable, ChartText} {
		out = append(out, t)
	}
	return out
}

// FieldMode describes how a field mapping value is interpreted.
type FieldMode string

const (
	// ModeField references a column of the data source by name.
	ModeField FieldMode = "field"
	// ModeNumeric carries a literal number, allowed only for size-type fields.
	ModeNumeric FieldMode = "numeric"
	// ModeCustom carries free text that is not a column reference.
	ModeCustom FieldMode = "custom"
)

// FieldValue is a field mapping with its input mode persisted explicitly.
// Legacy payloads stored a bare scalar and inferred the mode from its shape;
// those still decode (mode left empty, see InferMode) but are re-encoded with
// the mode set.
type FieldValue struct {
	Mode  FieldMode `json:"mode,omitempty"`
	Value string    `json:"value"`
}

// UnmarshalJSON accepts either the {mode,value} object form or a legacy bare
// string/number scalar.
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	type alias FieldValue
	var obj alias
	if err := json.Unmarshal(data, &obj); err == nil && (obj.Mode != "" || obj.Value != "") {
		*f = FieldValue(obj)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Mode = ""
		f.Value = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		f.Mode = ModeNumeric
		f.Value = n.String()
		return nil
	}
	return fmt.Errorf("field value: expected object, string or number, got %s", data)
}

// Numeric returns the literal number carried by a numeric-mode value.
func (f *FieldValue) Numeric() (float64, bool) {
	if f == nil || f.Mode != ModeNumeric {
		return 0, false
	}
	v, err := strconv.ParseFloat(f.Value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Column returns the referenced column name for field-mode values.
func (f *FieldValue) Column() (string, bool) {
	if f == nil || (f.Mode != ModeField && f.Mode != "") {
		return "", false
	}
	return f.Value, f.Value != ""
}

// SortSpec is the enabled form of the sort option. Sort as a whole is
// tri-state on Config: nil (disabled), bare true (enabled, defaults) or an
// object with options. A bare boolean round-trips as a boolean; a legacy
// bare false decodes as disabled and is dropped by Normalize.
type SortSpec struct {
	Reverse bool   `json:"reverse,omitempty"`
	By      string `json:"by,omitempty"`

	bare     bool
	disabled bool
}

// Bare reports whether the spec was written as a bare `true`.
func (s *SortSpec) Bare() bool { return s != nil && s.bare }

// Disabled reports whether the spec was written as a legacy bare `false`.
func (s *SortSpec) Disabled() bool { return s != nil && s.disabled }

func (s *SortSpec) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = SortSpec{bare: b, disabled: !b}
		return nil
	}
	type alias SortSpec
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = SortSpec(obj)
	return nil
}

func (s SortSpec) MarshalJSON() ([]byte, error) {
	if s.bare {
		return []byte("true"), nil
	}
	if s.disabled {
		return []byte("false"), nil
	}
	type alias SortSpec
	return json.Marshal(alias(s))
}

// GroupSpec mirrors SortSpec for the group option.
type GroupSpec struct {
	Reverse bool   `json:"reverse,omitempty"`
	By      string `json:"by,omitempty"`

	bare     bool
	disabled bool
}

func (g *GroupSpec) Bare() bool     { return g != nil && g.bare }
func (g *GroupSpec) Disabled() bool { return g != nil && g.disabled }

func (g *GroupSpec) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*g = GroupSpec{bare: b, disabled: !b}
		return nil
	}
	type alias GroupSpec
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*g = GroupSpec(obj)
	return nil
}

func (g GroupSpec) MarshalJSON() ([]byte, error) {
	if g.bare {
		return []byte("true"), nil
	}
	if g.disabled {
		return []byte("false"), nil
	}
	type alias GroupSpec
	return json.Marshal(alias(g))
}

// StackSpec configures series stacking: bare true or grouping options.
type StackSpec struct {
	GroupBy string `json:"groupBy,omitempty"`
	OrderBy string `json:"orderBy,omitempty"`
	Series  string `json:"series,omitempty"`

	bare     bool
	disabled bool
}

func (s *StackSpec) Bare() bool     { return s != nil && s.bare }
func (s *StackSpec) Disabled() bool { return s != nil && s.disabled }

func (s *StackSpec) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = StackSpec{bare: b, disabled: !b}
		return nil
	}
	type alias StackSpec
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = StackSpec(obj)
	return nil
}

func (s StackSpec) MarshalJSON() ([]byte, error) {
	if s.bare {
		return []byte("true"), nil
	}
	if s.disabled {
		return []byte("false"), nil
	}
	type alias StackSpec
	return json.Marshal(alias(s))
}

// PointSpec styles scatter/line point marks.
type PointSpec struct {
	ShapeField *FieldValue `json:"shapeField,omitempty"`
	SizeField  *FieldValue `json:"sizeField,omitempty"`
}

// StyleSpec carries mark styling shared across chart types.
type StyleSpec struct {
	LineWidth   float64 `json:"lineWidth,omitempty"`
	LineDash    []int   `json:"lineDash,omitempty"`
	FillOpacity float64 `json:"fillOpacity,omitempty"`
	Inset       float64 `json:"inset,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
}

// AxisPosition places a y axis on the left or right edge.
type AxisPosition string

const (
	AxisLeft  AxisPosition = "left"
	AxisRight AxisPosition = "right"
)

// YAxisSpec configures a child series' own y axis.
type YAxisSpec struct {
	Position AxisPosition `json:"position,omitempty"`
	Title    string       `json:"title,omitempty"`
}

// AxisSpec groups per-axis settings.
type AxisSpec struct {
	Y *YAxisSpec `json:"y,omitempty"`
}

// ChildSeries is the restricted config shape of one dual-axes series.
type ChildSeries struct {
	Type       string      `json:"type"`
	YField     *FieldValue `json:"yField,omitempty"`
	ColorField *FieldValue `json:"colorField,omitempty"`
	Axis       *AxisSpec   `json:"axis,omitempty"`
}

// TooltipInteraction toggles tooltip marker rendering.
type TooltipInteraction struct {
	Marker *bool `json:"marker,omitempty"`
}

// InteractionSpec groups interaction settings.
type InteractionSpec struct {
	Tooltip *TooltipInteraction `json:"tooltip,omitempty"`
}

// Config is the chart-type-polymorphic widget configuration. Which keys are
// meaningful depends on ChartType; keys outside the active variant are
// preserved on load but rejected by Validate, and stripped on a type switch
// only when the reset policy asks for it (see SetChartType).
type Config struct {
	ChartType ChartType `json:"chartType"`

	XField      *FieldValue `json:"xField,omitempty"`
	YField      *FieldValue `json:"yField,omitempty"`
	ColorField  *FieldValue `json:"colorField,omitempty"`
	SeriesField *FieldValue `json:"seriesField,omitempty"`
	ShapeField  *FieldValue `json:"shapeField,omitempty"`
	SizeField   *FieldValue `json:"sizeField,omitempty"`
	BinField    *FieldValue `json:"binField,omitempty"`

	Stack       *StackSpec       `json:"stack,omitempty"`
	Sort        *SortSpec        `json:"sort,omitempty"`
	Group       *GroupSpec       `json:"group,omitempty"`
	Normalize   bool             `json:"normalize,omitempty"`
	Percent     bool             `json:"percent,omitempty"`
	InnerRadius float64          `json:"innerRadius,omitempty"`
	Point       *PointSpec       `json:"point,omitempty"`
	Style       *StyleSpec       `json:"style,omitempty"`
	Legend      *bool            `json:"legend,omitempty"`
	Label       *bool            `json:"label,omitempty"`
	Tooltip     *bool            `json:"tooltip,omitempty"`
	Interaction *InteractionSpec `json:"interaction,omitempty"`

	// Children holds the nested series of a dual-axes chart, ordered.
	Children []ChildSeries `json:"children,omitempty"`
}

// SetChartType switches the chart type. With reset enabled, keys that do not
// apply to the new type are stripped; otherwise stale values persist so the
// user can switch back without losing settings.
func (c *Config) SetChartType(t ChartType, reset bool) {
	c.ChartType = t
	if reset {
		*c = StripInapplicable(*c)
	}
}

// Prune drops disabled tri-state options and clears sort/group specs whose
// "by" selection is the none sentinel, so a cleared option decodes to an
// absent field rather than a dangling object.
func (c *Config) Prune() {
	if c.Sort != nil && (c.Sort.Disabled() || (!c.Sort.Bare() && c.Sort.By == ByNone)) {
		c.Sort = nil
	}
	if c.Group != nil && (c.Group.Disabled() || (!c.Group.Bare() && c.Group.By == ByNone)) {
		c.Group = nil
	}
	if c.Stack != nil && c.Stack.Disabled() {
		c.Stack = nil
	}
}

// field returns the pointer slot for a mapping key, or nil for non-mapping keys.
func (c *Config) field(k Key) **FieldValue {
	switch k {
	case KeyXField:
		return &c.XField
	case KeyYField:
		return &c.YField
	case KeyColorField:
		return &c.ColorField
	case KeySeriesField:
		return &c.SeriesField
	case KeyShapeField:
		return &c.ShapeField
	case KeySizeField:
		return &c.SizeField
	case KeyBinField:
		return &c.BinField
	}
	return nil
}
