package handler

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faciam-dev/gridbi/internal/widget"
	"github.com/faciam-dev/gridbi/pkg/chartpolicy"
)

// ChartPolicyHandler serves chart-type defaults for the widget editor. The
// rules live in a hot-reloaded YAML file.
type ChartPolicyHandler struct {
	Store      *chartpolicy.Store
	PolicyPath string
}

type chartDefaultsParams struct {
	Name        string `query:"name"`
	Type        string `query:"type" enum:"number,string,"`
	NumericCols int    `query:"numericCols" minimum:"0"`
	StringCols  int    `query:"stringCols" minimum:"0"`
}

type chartDefaultsOutput struct {
	Body struct {
		Resolved struct {
			Chart  string         `json:"chart"`
			Config map[string]any `json:"config,omitempty"`
		} `json:"resolved"`
		Suggested []string `json:"suggested"`
	}
}

type chartPolicyStatusOutput struct {
	Body struct {
		Path       string                  `json:"path"`
		Rules      int                     `json:"rules"`
		SuggestTop int                     `json:"suggest_top"`
		Sample     []chartpolicy.PolicyRule `json:"sample"`
	}
}

func RegisterChartPolicy(api huma.API, h *ChartPolicyHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "chartDefaults",
		Method:      http.MethodGet,
		Path:        "/v1/widgets/chart-defaults",
		Summary:     "Suggest a chart type for a column shape",
		Tags:        []string{"Widget"},
	}, h.defaults)
	huma.Register(api, huma.Operation{
		OperationID: "chartPolicyStatus",
		Method:      http.MethodGet,
		Path:        "/v1/widgets/chart-defaults/_status",
		Summary:     "Chart policy status",
		Tags:        []string{"Widget"},
	}, h.status)
}

func (h *ChartPolicyHandler) defaults(ctx context.Context, in *chartDefaultsParams) (*chartDefaultsOutput, error) {
	pctx := chartpolicy.Ctx{
		Name:        in.Name,
		Type:        in.Type,
		NumericCols: in.NumericCols,
		StringCols:  in.StringCols,
	}
	pol := h.Store.Get()
	chart, cfg := pol.Resolve(pctx, func(id string) bool {
		return widget.ChartType(id).Valid()
	})
	out := &chartDefaultsOutput{}
	out.Body.Resolved.Chart = chart
	if len(cfg) > 0 {
		out.Body.Resolved.Config = cfg
	}
	out.Body.Suggested = pol.Suggest(pctx)
	return out, nil
}

func (h *ChartPolicyHandler) status(ctx context.Context, _ *struct{}) (*chartPolicyStatusOutput, error) {
	p := h.Store.Get()
	sample := p.Rules
	if len(sample) > 3 {
		sample = sample[:3]
	}
	out := &chartPolicyStatusOutput{}
	out.Body.Path = h.PolicyPath
	out.Body.Rules = len(p.Rules)
	out.Body.SuggestTop = p.SuggestTop
	out.Body.Sample = sample
	return out, nil
}
