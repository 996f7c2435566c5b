package widget

import (
	"errors"
	"testing"
)

func TestValidateRejectsUnknownChartType(t *testing.T) {
	err := Validate(Config{ChartType: "sparkline"})
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestValidateNumericModeOnlyForSizeFields(t *testing.T) {
	cfg := Config{
		ChartType: ChartBar,
		YField:    &FieldValue{Mode: ModeNumeric, Value: "7"},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("numeric literal on yField must be rejected")
	}
	cfg = Config{
		ChartType: ChartScatter,
		SizeField: &FieldValue{Mode: ModeNumeric, Value: "7"},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("numeric sizeField should pass: %v", err)
	}
}

func TestValidateDualAxesChildren(t *testing.T) {
	cfg := Config{
		ChartType: ChartDualAxes,
		Children: []ChildSeries{
			{Type: "line", YField: &FieldValue{Mode: ModeField, Value: "a"}},
			{Type: "pyramid", YField: &FieldValue{Mode: ModeField, Value: "b"}},
			{Type: "line"},
		},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %T", err)
	}
	if len(verr.Problems) != 2 {
		t.Fatalf("problems = %v", verr.Problems)
	}
}

func TestValidateStrictFlagsStaleKeys(t *testing.T) {
	cfg := Config{
		ChartType:   ChartPie,
		SeriesField: &FieldValue{Mode: ModeField, Value: "region"},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("lenient validation must tolerate stale keys: %v", err)
	}
	if err := ValidateStrict(cfg); err == nil {
		t.Fatal("strict validation must reject stale keys")
	}
}

func TestValidateInnerRadiusRange(t *testing.T) {
	cfg := Config{ChartType: ChartPie, InnerRadius: 1.2}
	if err := Validate(cfg); err == nil {
		t.Fatal("innerRadius out of range must fail")
	}
	cfg.InnerRadius = 0.6
	if err := Validate(cfg); err != nil {
		t.Fatalf("innerRadius 0.6 should pass: %v", err)
	}
}
