package chartpolicy

import "strings"

// Ctx describes the result set a default is picked for. Name and Type refer
// to the candidate x-axis column; NumericCols and StringCols count the whole
// result.
type Ctx struct {
	Name        string
	Type        string
	NumericCols int
	StringCols  int
}

const fallbackChart = "table"

// Resolve returns the first matching rule's chart type and config patch.
// Charts rejected by valid fall back to a plain table.
func (p *ChartPolicy) Resolve(ctx Ctx, valid func(string) bool) (chart string, cfg map[string]any) {
	for _, r := range p.Rules {
		if match(r.When, ctx) {
			chart, cfg = r.Chart, renderConfig(r.Config, ctx)
			if valid != nil && !valid(chart) {
				chart, cfg = fallbackChart, map[string]any{}
			}
			return
		}
	}
	return fallbackChart, map[string]any{}
}

// Suggest lists matching chart types in rule order, deduplicated, capped at
// SuggestTop once a stop rule is passed.
func (p *ChartPolicy) Suggest(ctx Ctx) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range p.Rules {
		if match(r.When, ctx) {
			if !seen[r.Chart] {
				out = append(out, r.Chart)
				seen[r.Chart] = true
			}
			if r.Stop && len(out) >= p.SuggestTop {
				break
			}
		}
	}
	if len(out) == 0 {
		out = append(out, fallbackChart)
	}
	return out
}

func match(w RuleWhen, c Ctx) bool {
	if len(w.Types) > 0 {
		t := strings.ToLower(c.Type)
		found := false
		for _, x := range w.Types {
			if x == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if w.NumericMin != nil && c.NumericCols < *w.NumericMin {
		return false
	}
	if w.NumericMax != nil && c.NumericCols > *w.NumericMax {
		return false
	}
	if w.StringMin != nil && c.StringCols < *w.StringMin {
		return false
	}
	if w.StringMax != nil && c.StringCols > *w.StringMax {
		return false
	}
	if w.rx != nil && !w.rx.MatchString(c.Name) {
		return false
	}
	return true
}
