package migrator

import "testing"

func TestSemVer(t *testing.T) {
	m := NewWithDriver("mysql")
	cases := []struct {
		in  int
		out string
	}{
		{0, "0.0.0"},
		{1, "1.0"},
		{2, "1.1"},
	}
	for _, c := range cases {
		if got := m.SemVer(c.in); got != c.out {
			t.Errorf("SemVer(%d)=%s want %s", c.in, got, c.out)
		}
	}
}

func TestSchemaOutdated(t *testing.T) {
	if !SchemaOutdated("1.0", "1.1") {
		t.Fatalf("1.0 should be older than 1.1")
	}
	if SchemaOutdated("1.1", "1.1") {
		t.Fatalf("equal versions are not outdated")
	}
	if SchemaOutdated("garbage", "1.1") {
		t.Fatalf("unparsable versions are treated as current")
	}
}
