package contract

import (
	"strings"
	"testing"
)

// FuzzShouldIgnore fuzzes the ShouldIgnore function with random paths and exclude patterns.
func FuzzShouldIgnore(f *testing.F) {
	seeds := []struct {
		path     string
		excludes string // comma-separated
	}{
		{"components/Card.vue", "*.spec.ts"},
		{"node_modules/vue/index.js", "node_modules/"},
		{"plugins/analytics.min.js", "*.min.js"},
		{"server/api/users.ts", ".ts"},
		{"", ""},
		{"components/deep/nested/Thing.vue", "**/legacy/**"},
	}
	for _, seed := range seeds {
		f.Add(seed.path, seed.excludes)
	}

	f.Fuzz(func(_ *testing.T, path string, excludesStr string) {
		excludes := []string{}
		for ex := range strings.SplitSeq(excludesStr, ",") {
			if trimmed := strings.TrimSpace(ex); trimmed != "" {
				excludes = append(excludes, trimmed)
			}
		}
		_ = ShouldIgnore(path, excludes)
	})
}

// FuzzTruncatePath checks truncation never exceeds the requested width.
func FuzzTruncatePath(f *testing.F) {
	f.Add("components/Card.vue", 10)
	f.Add("", 0)
	f.Add("ü/ñ/é.vue", 4)

	f.Fuzz(func(t *testing.T, path string, width int) {
		got := TruncatePath(path, width)
		if width > 3 && len([]rune(got)) > width {
			t.Fatalf("TruncatePath(%q, %d) = %q exceeds width", path, width, got)
		}
	})
}
