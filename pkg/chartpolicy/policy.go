// Package chartpolicy picks default chart types for new widgets from
// operator-editable rules. Rules match on result-column shape and are
// hot-reloaded when the policy file changes.
package chartpolicy

import (
	"regexp"
	"strings"
)

type ChartPolicy struct {
	Version    int          `yaml:"version" json:"version"`
	SuggestTop int          `yaml:"suggest_top" json:"suggest_top"`
	Rules      []PolicyRule `yaml:"rules" json:"rules"`
}

type PolicyRule struct {
	ID     string         `yaml:"id" json:"id"`
	When   RuleWhen       `yaml:"when" json:"when"`
	Chart  string         `yaml:"chart" json:"chart"`
	Config map[string]any `yaml:"config" json:"config"`
	Stop   bool           `yaml:"stop" json:"stop"`
}

type RuleWhen struct {
	Types      []string `yaml:"types" json:"types"`
	NumericMin *int     `yaml:"numeric_min" json:"numeric_min"`
	NumericMax *int     `yaml:"numeric_max" json:"numeric_max"`
	StringMin  *int     `yaml:"string_min" json:"string_min"`
	StringMax  *int     `yaml:"string_max" json:"string_max"`
	NameRegex  string   `yaml:"name_regex" json:"name_regex"`

	rx *regexp.Regexp
}

func (p *ChartPolicy) Normalize() {
	for i := range p.Rules {
		r := &p.Rules[i]
		r.Chart = strings.TrimSpace(r.Chart)
		for j, t := range r.When.Types {
			r.When.Types[j] = strings.ToLower(strings.TrimSpace(t))
		}
		if r.When.NameRegex != "" {
			r.When.rx = regexp.MustCompile(r.When.NameRegex)
		}
	}
}
