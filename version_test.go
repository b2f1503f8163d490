package resolve

import "testing"

func TestParseValid(t *testing.T) {
	cases := []struct {
		in                   string
		major, minor, patch  uint64
		pre, build           []string
	}{
		{"1.2.3", 1, 2, 3, nil, nil},
		{"v1.2.3", 1, 2, 3, nil, nil},
		{"1.2", 1, 2, 0, nil, nil},
		{"1.0.0-alpha.1", 1, 0, 0, []string{"alpha", "1"}, nil},
		{"1.0.0+build.7", 1, 0, 0, nil, []string{"build", "7"}},
		{"1.0.0-beta+exp.sha.5114f85", 1, 0, 0, []string{"beta"}, []string{"exp", "sha", "5114f85"}},
	}
	for _, c := range cases {
		v, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", c.in, err)
		}
		if v.Major() != c.major || v.Minor() != c.minor || v.Patch() != c.patch {
			t.Errorf("Parse(%q) = %d.%d.%d, want %d.%d.%d", c.in, v.Major(), v.Minor(), v.Patch(), c.major, c.minor, c.patch)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"1.01.0",    // leading zero
		"1.2.3-",    // empty pre-release
		"1.2.3-01",  // leading zero numeric pre-release
		"1.2.3-a_b", // invalid character
		"1",         // too few components
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error, got none", in)
		}
	}
}

func TestOrdering(t *testing.T) {
	ordered := []string{
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
	}
	for i := 0; i < len(ordered)-1; i++ {
		a, b := MustParse(ordered[i]), MustParse(ordered[i+1])
		if !a.Less(b) {
			t.Errorf("expected %s < %s", ordered[i], ordered[i+1])
		}
	}
}

func TestBuildMetadataIgnoredInOrdering(t *testing.T) {
	a := MustParse("1.0.0+build.1")
	b := MustParse("1.0.0+build.2")
	if !a.Equal(b) {
		t.Errorf("expected build metadata to not affect equality: %s vs %s", a, b)
	}
}

func TestIsPreRelease(t *testing.T) {
	if !MustParse("1.0.0-beta").IsPreRelease() {
		t.Error("expected 1.0.0-beta to be a pre-release")
	}
	if MustParse("1.0.0").IsPreRelease() {
		t.Error("expected 1.0.0 to not be a pre-release")
	}
}
