package utils

import (
	"strings"
	"testing"
)

func TestVersionStrings(t *testing.T) {
	t.Parallel()

	short := GetVersionShort()
	if !strings.HasPrefix(short, "v") || !strings.Contains(short, "(") {
		t.Errorf("GetVersionShort() = %q", short)
	}

	if strings.Contains(short, "built at") {
		t.Errorf("GetVersionShort() should not carry build time: %q", short)
	}

	if full := GetBuildVersion(); !strings.Contains(full, "built at") {
		t.Errorf("GetBuildVersion() = %q", full)
	}
}

func TestGetBuildInfo(t *testing.T) {
	t.Parallel()

	info := GetBuildInfo()
	for _, key := range []string{"version", "commit", "build_time", "vcs_modified"} {
		if _, ok := info[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}

	commit, _, modified := getVCSInfo()
	if commit != "unknown" && len(commit) > shortCommitLen {
		t.Errorf("commit not shortened: %q", commit)
	}

	if modified != "true" && modified != "false" {
		t.Errorf("modified = %q", modified)
	}
}

func TestPtr(t *testing.T) {
	t.Parallel()

	p := Ptr(3)
	if *p != 3 {
		t.Errorf("Ptr() = %d", *p)
	}

	if got := Deref[int](nil, 7); got != 7 {
		t.Errorf("Deref(nil) = %d", got)
	}

	if got := Deref(p, 7); got != 3 {
		t.Errorf("Deref(p) = %d", got)
	}
}
