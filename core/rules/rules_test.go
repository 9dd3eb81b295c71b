package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleComponent = `<script setup lang="ts">
const props = defineProps<{ title: string }>()
const emit = defineEmits<{ close: [] }>()
const { data } = useFetch('/api/items')
const user = useUser()
const again = useUser()
const total = computed(() => props.title.length)
watchEffect(() => console.log(total.value))
</script>`

func TestDefaultRuleSet(t *testing.T) {
	rs := Default()
	require.Len(t, rs.Groups(), 4)
	assert.Equal(t, "componentPatterns", rs.Groups()[0].Name)
	assert.Equal(t, "performancePatterns", rs.Groups()[3].Name)
	assert.Equal(t, 20, rs.Size())
	assert.Len(t, rs.Fingerprint(), 64)
}

func TestMatch(t *testing.T) {
	hits := Default().Match(sampleComponent)

	comp := hits["componentPatterns"]
	require.NotNil(t, comp)
	assert.Equal(t, 1, comp["sharedProps"].Count)
	assert.Equal(t, 1, comp["sharedEmits"].Count)
	assert.Equal(t, 1, comp["computedProperties"].Count)
	assert.Equal(t, 1, comp["watchEffects"].Count)

	usage := comp["composableUsage"]
	assert.Equal(t, 3, usage.Count)
	assert.Equal(t, []string{"useFetch", "useUser"}, usage.Examples, "examples are distinct and in first-seen order")

	assert.Equal(t, 1, hits["pagePatterns"]["dataFetching"].Count)
	_, hasRoute := hits["apiPatterns"]["routeHandlers"]
	assert.False(t, hasRoute, "rules without matches are omitted")
}

func TestMatchExampleCap(t *testing.T) {
	hits := Default().Match("useA useB useC useD useE")
	usage := hits["componentPatterns"]["composableUsage"]
	assert.Equal(t, 5, usage.Count)
	assert.Equal(t, []string{"useA", "useB", "useC"}, usage.Examples)
}

func TestMatchDeterministic(t *testing.T) {
	rs := Default()
	assert.Equal(t, rs.Match(sampleComponent), rs.Match(sampleComponent))
}

func TestMatchEmpty(t *testing.T) {
	assert.Empty(t, Default().Match(""))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"no categories", Definition{}},
		{"unnamed category", Definition{Categories: []GroupDefinition{{Patterns: []RuleDefinition{{"a", "a"}}}}}},
		{"duplicate category", Definition{Categories: []GroupDefinition{{Name: "x"}, {Name: "x"}}}},
		{"duplicate rule", Definition{Categories: []GroupDefinition{{Name: "x", Patterns: []RuleDefinition{{"a", "a"}, {"a", "b"}}}}}},
		{"empty expression", Definition{Categories: []GroupDefinition{{Name: "x", Patterns: []RuleDefinition{{"a", ""}}}}}},
		{"bad expression", Definition{Categories: []GroupDefinition{{Name: "x", Patterns: []RuleDefinition{{"a", "(unclosed"}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.def)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `categories:
  - name: customPatterns
    patterns:
      - name: todo
        expr: 'TODO\([a-z]+\)'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, rs.Groups(), 1)
	assert.Equal(t, 1, rs.Size())
	assert.NotEqual(t, Default().Fingerprint(), rs.Fingerprint())

	hits := rs.Match("TODO(sam) and TODO(ann) and TODO(sam)")
	assert.Equal(t, 3, hits["customPatterns"]["todo"].Count)
	assert.Equal(t, []string{"TODO(sam)", "TODO(ann)"}, hits["customPatterns"]["todo"].Examples)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [[["), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	rs, err := Load("")
	require.NoError(t, err)
	assert.Same(t, Default(), rs)
}
