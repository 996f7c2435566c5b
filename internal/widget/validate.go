package widget

import (
	"fmt"
	"strings"
)

// ValidationError collects the field-local problems of one config so the
// editor can surface them inline. It satisfies error.
type ValidationError struct {
	Problems []Problem
}

// Problem is one field-local validation failure.
type Problem struct {
	Key     Key    `json:"key"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = fmt.Sprintf("%s: %s", p.Key, p.Message)
	}
	return "invalid widget config: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(k Key, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{Key: k, Message: fmt.Sprintf(format, args...)})
}

// childSeriesTypes are the mark types a dual-axes child may use.
var childSeriesTypes = map[string]struct{}{"line": {}, "interval": {}, "area": {}, "point": {}}

// Validate checks cfg structurally against the variant selected by its chart
// type. Values on keys outside the variant are tolerated: they persist across
// chart-type switches so the user can switch back. ValidateStrict rejects
// them instead.
func Validate(cfg Config) error {
	return validate(cfg, false)
}

// ValidateStrict additionally rejects values on keys the active chart type
// does not use. Intended for write paths that enable the reset-on-type-change
// policy.
func ValidateStrict(cfg Config) error {
	return validate(cfg, true)
}

func validate(cfg Config, strict bool) error {
	var verr ValidationError
	if !cfg.ChartType.Valid() {
		verr.add("chartType", "unknown chart type %q", cfg.ChartType)
		return &verr
	}

	if strict {
		for k, set := range presentKeys(cfg) {
			if set && !Applicable(cfg.ChartType, k) {
				verr.add(k, "not applicable to chart type %q", cfg.ChartType)
			}
		}
	}

	checkField := func(k Key, f *FieldValue) {
		if f == nil {
			return
		}
		t := keyTraits[k]
		switch f.Mode {
		case ModeField, "":
		case ModeNumeric:
			if !t.AllowNumeric {
				verr.add(k, "literal numbers are not allowed")
			} else if _, ok := f.Numeric(); !ok {
				verr.add(k, "value %q is not numeric", f.Value)
			}
		case ModeCustom:
			if !t.AllowCustom {
				verr.add(k, "custom values are not allowed")
			}
		default:
			verr.add(k, "unknown mode %q", f.Mode)
		}
	}
	checkField(KeyXField, cfg.XField)
	checkField(KeyYField, cfg.YField)
	checkField(KeyColorField, cfg.ColorField)
	checkField(KeySeriesField, cfg.SeriesField)
	checkField(KeyShapeField, cfg.ShapeField)
	checkField(KeySizeField, cfg.SizeField)
	checkField(KeyBinField, cfg.BinField)

	if cfg.InnerRadius < 0 || cfg.InnerRadius >= 1 {
		if cfg.InnerRadius != 0 {
			verr.add(KeyInnerRadius, "must be in [0, 1)")
		}
	}

	if cfg.ChartType == ChartDualAxes {
		if len(cfg.Children) > 4 {
			verr.add(KeyChildren, "at most 4 series")
		}
		for i, ch := range cfg.Children {
			if _, ok := childSeriesTypes[ch.Type]; !ok {
				verr.add(KeyChildren, "series %d: unknown type %q", i, ch.Type)
			}
			if ch.YField == nil || ch.YField.Value == "" {
				verr.add(KeyChildren, "series %d: yField is required", i)
			}
			if ch.Axis != nil && ch.Axis.Y != nil {
				if p := ch.Axis.Y.Position; p != "" && p != AxisLeft && p != AxisRight {
					verr.add(KeyChildren, "series %d: axis position %q", i, p)
				}
			}
		}
	}

	if cfg.Sort != nil && !cfg.Sort.Bare() && !cfg.Sort.Disabled() && cfg.Sort.By == ByNone {
		verr.add(KeySort, "by %q must clear the option", ByNone)
	}
	if cfg.Group != nil && !cfg.Group.Bare() && !cfg.Group.Disabled() && cfg.Group.By == ByNone {
		verr.add(KeyGroup, "by %q must clear the option", ByNone)
	}

	if len(verr.Problems) > 0 {
		return &verr
	}
	return nil
}

// presentKeys reports which editable keys carry a value in cfg.
func presentKeys(cfg Config) map[Key]bool {
	return map[Key]bool{
		KeyXField:      cfg.XField != nil,
		KeyYField:      cfg.YField != nil,
		KeyColorField:  cfg.ColorField != nil,
		KeySeriesField: cfg.SeriesField != nil,
		KeyShapeField:  cfg.ShapeField != nil,
		KeySizeField:   cfg.SizeField != nil,
		KeyBinField:    cfg.BinField != nil,
		KeyStack:       cfg.Stack != nil,
		KeySort:        cfg.Sort != nil,
		KeyGroup:       cfg.Group != nil,
		KeyNormalize:   cfg.Normalize,
		KeyPercent:     cfg.Percent,
		KeyInnerRadius: cfg.InnerRadius != 0,
		KeyPoint:       cfg.Point != nil,
		KeyStyle:       cfg.Style != nil,
		KeyLegend:      cfg.Legend != nil,
		KeyLabel:       cfg.Label != nil,
		KeyTooltip:     cfg.Tooltip != nil,
		KeyInteraction: cfg.Interaction != nil,
		KeyChildren:    len(cfg.Children) > 0,
	}
}
