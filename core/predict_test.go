package core

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/outwriter"
	"github.com/huangsam/patternscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeStructure(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		writeFile(t, root, "components/"+name+".vue", "<template />")
	}
	writeFile(t, root, "pages/index.vue", "<template />")
	writeFile(t, root, "server/api/users.ts", "export default {}")
	writeFile(t, root, "layouts/default.vue", "<template />")

	s := AnalyzeStructure(root)
	assert.Equal(t, 5, s.ComponentCount)
	assert.Equal(t, 1, s.PageCount)
	assert.Equal(t, 1, s.APICount)
	assert.Equal(t, schema.Present, s.Components)
	assert.Equal(t, schema.Present, s.Layouts)
	assert.Equal(t, schema.Absent, s.Composables)
	assert.Equal(t, schema.Absent, s.Middleware)
}

func TestGeneratePredictions(t *testing.T) {
	tests := []struct {
		name       string
		structure  schema.ProjectStructure
		activity   schema.RecentActivity
		wantHigh   []string
		wantMedium []string
		wantLow    []string
	}{
		{
			name:      "empty project",
			structure: schema.ProjectStructure{},
		},
		{
			name: "many components without composables",
			structure: schema.ProjectStructure{
				Components: schema.Present, ComponentCount: 4, Composables: schema.Absent,
			},
			wantHigh: []string{"Composable extraction"},
		},
		{
			name: "unreadable composables count as absent",
			structure: schema.ProjectStructure{
				Components: schema.Present, ComponentCount: 6, Composables: schema.Unreadable,
			},
			wantHigh: []string{"Composable extraction"},
		},
		{
			name: "full stack app without middleware",
			structure: schema.ProjectStructure{
				Pages: schema.Present, PageCount: 6,
				ServerAPI: schema.Present, APICount: 3,
				Middleware: schema.Absent,
			},
			wantHigh:   []string{"API middleware optimization", "Layout system implementation"},
			wantMedium: []string{"State management setup"},
			wantLow:    []string{"Authentication middleware"},
		},
		{
			name: "component focused activity",
			structure: schema.ProjectStructure{
				Components: schema.Present, ComponentCount: 2, Layouts: schema.Present,
			},
			activity:   schema.RecentActivity{ModificationPattern: schema.ComponentFocused},
			wantMedium: []string{"Component performance optimization"},
		},
	}

	needs := func(ps []schema.Prediction) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.Need)
		}
		return out
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := GeneratePredictions(tt.structure, tt.activity)
			assert.Equal(t, append([]string{}, tt.wantHigh...), needs(p.High))
			assert.Equal(t, append([]string{}, tt.wantMedium...), needs(p.Medium))
			assert.Equal(t, append([]string{}, tt.wantLow...), needs(p.Low))
		})
	}
}

func TestRecommendKernels(t *testing.T) {
	p := schema.Predictions{
		High:   []schema.Prediction{{Kernel: APIPatternsKernel}, {Kernel: ComponentArchitectureKernel}},
		Medium: []schema.Prediction{{Kernel: ComponentArchitectureKernel}},
		Low:    []schema.Prediction{{Kernel: PerformanceOptimizationKernel}},
	}
	recs := RecommendKernels(p)
	require.Len(t, recs, 2, "low predictions do not drive recommendations")
	assert.Equal(t, "Activate nuxt_component_architecture.spr", recs[0].Action)
	assert.Equal(t, "Activate nuxt_api_patterns.spr", recs[1].Action)

	assert.NotNil(t, RecommendKernels(schema.Predictions{}))
}

func TestAnalyzeActivity(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "components/A.vue", "")
	writeFile(t, root, "components/B.vue", "")
	writeFile(t, root, "pages/index.vue", "")

	a := AnalyzeActivity(root, time.Now())
	assert.Len(t, a.RecentFiles, 3)
	assert.Equal(t, schema.ComponentFocused, a.ModificationPattern)

	// Nothing counts as recent a week from now
	a = AnalyzeActivity(root, time.Now().Add(7*24*time.Hour))
	assert.Empty(t, a.RecentFiles)
	assert.Equal(t, schema.UnknownPattern, a.ModificationPattern)
}

func TestAnalyzeActivityComponentsWithoutPages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "components/A.vue", "")
	writeFile(t, root, "server/api/users.ts", "")

	// Missing pages count as zero, so recent components win over API work
	a := AnalyzeActivity(root, time.Now())
	assert.Equal(t, schema.ComponentFocused, a.ModificationPattern)
}

func TestPredictWritesReport(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.RepoPath, "pages/index.vue", "<template />")
	writeFile(t, cfg.RepoPath, "server/api/users.ts", "export default {}")

	report, err := Predict(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, report.Predictions.Medium, 1)
	assert.Equal(t, "State management setup", report.Predictions.Medium[0].Need)
	assert.Len(t, report.NextActions, 3)

	var saved schema.PredictionReport
	require.NoError(t, outwriter.ReadJSONFile(cfg.StatePath(contract.PredictionReportName), &saved))
	assert.Equal(t, report.Timestamp, saved.Timestamp)
	assert.Equal(t, 1, saved.Structure.PageCount)
}

func TestExecutePredictSuppressed(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, ExecutePredict(WithSuppressOutput(context.Background()), cfg))
	assert.FileExists(t, cfg.StatePath(contract.PredictionReportName))
}
