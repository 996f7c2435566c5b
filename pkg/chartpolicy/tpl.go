package chartpolicy

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

func renderConfig(in map[string]any, ctx Ctx) map[string]any {
	if in == nil {
		return nil
	}
	out := map[string]any{}
	fm := template.FuncMap{
		"join": strings.Join,
		"eq":   func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) },
	}
	for k, v := range in {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		tpl, err := template.New("cfg").Funcs(fm).Parse(s)
		if err != nil {
			out[k] = v
			continue
		}
		var buf bytes.Buffer
		_ = tpl.Execute(&buf, map[string]any{
			"Name":        ctx.Name,
			"Type":        ctx.Type,
			"NumericCols": ctx.NumericCols,
			"StringCols":  ctx.StringCols,
		})
		out[k] = buf.String()
	}
	return out
}
