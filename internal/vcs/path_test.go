package vcs

import "testing"

func TestValidateFilePath(t *testing.T) {
	cases := map[string]bool{
		"/a":       true,
		"/a/b.txt": true,
		"/a_b-c.1": true,
		"/":        false,
		"a":        false,
		"/a/":      false,
		"/a//b":    false,
		"/a b":     false,
	}
	for path, want := range cases {
		if err := validateFilePath(path); (err == nil) != want {
			t.Errorf("validateFilePath(%q) = %v, want ok=%v", path, err, want)
		}
	}
}

func TestValidateDirPath(t *testing.T) {
	cases := map[string]bool{
		"/":     true,
		"/a":    true,
		"/a/":   true,
		"a":     false,
		"/a//":  false,
		"/a/b/": true,
	}
	for path, want := range cases {
		if err := validateDirPath(path); (err == nil) != want {
			t.Errorf("validateDirPath(%q) = %v, want ok=%v", path, err, want)
		}
	}
}

func TestNormalizeDir(t *testing.T) {
	if got := normalizeDir("/"); got != "/" {
		t.Errorf("normalizeDir(/) = %q", got)
	}
	if got := normalizeDir("/d"); got != "/d/" {
		t.Errorf("normalizeDir(/d) = %q", got)
	}
	if got := normalizeDir("/d/"); got != "/d/" {
		t.Errorf("normalizeDir(/d/) = %q", got)
	}
}
