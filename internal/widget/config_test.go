package widget

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func boolPtr(b bool) *bool { return &b }

func TestConfigRoundTrip(t *testing.T) {
	cfg := Config{
		ChartType:  ChartDualAxes,
		XField:     &FieldValue{Mode: ModeField, Value: "month"},
		Legend:     boolPtr(true),
		Tooltip:    boolPtr(true),
		Interaction: &InteractionSpec{Tooltip: &TooltipInteraction{Marker: boolPtr(false)}},
		Children: []ChildSeries{
			{
				Type:       "line",
				YField:     &FieldValue{Mode: ModeField, Value: "revenue"},
				ColorField: &FieldValue{Mode: ModeCustom, Value: "#5B8FF9"},
				Axis:       &AxisSpec{Y: &YAxisSpec{Position: AxisLeft, Title: "Revenue"}},
			},
			{
				Type:   "interval",
				YField: &FieldValue{Mode: ModeField, Value: "orders"},
				Axis:   &AxisSpec{Y: &YAxisSpec{Position: AxisRight}},
			},
		},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Config
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(cfg, got, cmpopts.IgnoreUnexported(SortSpec{}, GroupSpec{}, StackSpec{})); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigRoundTripTriState(t *testing.T) {
	for _, raw := range []string{
		`{"chartType":"bar","sort":true}`,
		`{"chartType":"bar","sort":{"reverse":true,"by":"amount"}}`,
		`{"chartType":"bar","stack":{"groupBy":"region","orderBy":"amount"}}`,
		`{"chartType":"bar","group":true}`,
	} {
		var cfg Config
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		out, err := json.Marshal(cfg)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var a, b map[string]any
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			t.Fatal(err)
		}
		if err := json.Unmarshal(out, &b); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("%s did not round trip (-in +out):\n%s", raw, diff)
		}
	}
}

func TestFieldValueLegacyScalar(t *testing.T) {
	var f FieldValue
	if err := json.Unmarshal([]byte(`"region"`), &f); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if f.Mode != "" || f.Value != "region" {
		t.Fatalf("got %+v", f)
	}
	if err := json.Unmarshal([]byte(`12.5`), &f); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if f.Mode != ModeNumeric || f.Value != "12.5" {
		t.Fatalf("got %+v", f)
	}
	if v, ok := f.Numeric(); !ok || v != 12.5 {
		t.Fatalf("Numeric() = %v, %v", v, ok)
	}
}

func TestPruneClearsDisabledAndNone(t *testing.T) {
	var cfg Config
	raw := `{"chartType":"bar","sort":false,"group":{"by":"none"},"stack":false}`
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg.Prune()
	if cfg.Sort != nil || cfg.Group != nil || cfg.Stack != nil {
		t.Fatalf("expected cleared options, got sort=%v group=%v stack=%v", cfg.Sort, cfg.Group, cfg.Stack)
	}
}

func TestSetChartTypePreservesUnlessReset(t *testing.T) {
	cfg := Config{
		ChartType:   ChartLine,
		XField:      &FieldValue{Mode: ModeField, Value: "day"},
		SeriesField: &FieldValue{Mode: ModeField, Value: "region"},
	}
	cfg.SetChartType(ChartPie, false)
	if cfg.SeriesField == nil {
		t.Fatal("seriesField should persist without reset")
	}
	cfg.SetChartType(ChartPie, true)
	if cfg.SeriesField != nil || cfg.XField != nil {
		t.Fatalf("reset should strip inapplicable keys, got %+v", cfg)
	}
}
