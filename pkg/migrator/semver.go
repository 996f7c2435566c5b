package migrator

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SchemaOutdated reports whether the current schema semver is older than
// required. Unparsable versions are treated as up to date.
func SchemaOutdated(current, required string) bool {
	vc, err1 := semver.NewVersion(normalize(current))
	vr, err2 := semver.NewVersion(normalize(required))
	if err1 != nil || err2 != nil {
		return false
	}
	return vc.LessThan(vr)
}

func normalize(s string) string {
	if strings.Count(s, ".") == 1 {
		return s + ".0"
	}
	return s
}
