package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *contract.Config {
	root := t.TempDir()
	return &contract.Config{
		RepoPath:     root,
		StateDir:     filepath.Join(root, ".cdcs"),
		ReportFile:   filepath.Join(root, ".cdcs", contract.PatternReportName),
		Output:       schema.TextOut,
		Workers:      2,
		Width:        120,
		UseColors:    false,
		CacheBackend: schema.NoneBackend,
	}
}

func sampleScanOutput() *schema.ScanOutput {
	return &schema.ScanOutput{
		Report: schema.PatternReport{
			RunID: "run-1",
			Stats: schema.ScanStats{
				TotalFiles:    5,
				TotalPatterns: 1,
				Categories:    []schema.Category{schema.ComponentCategory, schema.APICategory},
			},
			RecurringPatterns: map[schema.Category]map[string]schema.PatternSummary{
				schema.ComponentCategory: {
					"vuePatterns.props": {Frequency: 4, TotalOccurrences: 4, Significance: 16, Examples: []string{"defineProps<{ title: string }>()"}},
				},
				schema.APICategory: {},
			},
			Suggestions: []schema.Suggestion{{
				Type:        schema.ComposableExtraction,
				Priority:    schema.HighPriority,
				Description: "Extract shared props into composable",
				Impact:      "Reduce code duplication",
				Action:      "Create useSharedProps composable",
			}},
		},
		Duration: 20 * time.Millisecond,
	}
}

func sampleRanked() []schema.RankedPattern {
	return []schema.RankedPattern{{
		Category:       schema.ComponentCategory,
		Key:            "vuePatterns.props",
		PatternSummary: schema.PatternSummary{Frequency: 4, TotalOccurrences: 4, Significance: 16, Examples: []string{"a", "b"}},
	}}
}

func TestWritePatternText(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer
	require.NoError(t, writePatternText(&buf, sampleScanOutput(), sampleRanked(), cfg))

	out := buf.String()
	assert.Contains(t, out, "Files analyzed: 5")
	assert.Contains(t, out, "Recurring patterns found: 1")
	assert.Contains(t, out, "Active categories: component, api")
	assert.Contains(t, out, "  1. [HIGH] Extract shared props into composable")
	assert.Contains(t, out, "     Impact: Reduce code duplication")
	assert.Contains(t, out, "     Action: Create useSharedProps composable")
	assert.Contains(t, out, "vuePatterns.props")
	assert.Contains(t, out, "Analysis saved to: "+cfg.ReportFile)
}

func TestWritePatternTextNoSuggestions(t *testing.T) {
	cfg := testConfig(t)
	output := sampleScanOutput()
	output.Report.Suggestions = nil

	var buf bytes.Buffer
	require.NoError(t, writePatternText(&buf, output, nil, cfg))
	assert.Contains(t, buf.String(), "No major optimization opportunities detected")
	assert.NotContains(t, buf.String(), "Optimization Opportunities:")
}

func TestWritePatternCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePatternCSV(&buf, sampleRanked()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"rank", "category", "pattern", "files", "total_occurrences", "significance", "examples"}, records[0])
	assert.Equal(t, []string{"1", "component", "vuePatterns.props", "4", "4", "16", "a|b"}, records[1])
}

func TestPrintPatternResultsJSONToFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, PrintPatternResults(sampleScanOutput(), sampleRanked(), cfg))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var report schema.PatternReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 5, report.Stats.TotalFiles)
	assert.Equal(t, "run-1", report.RunID)
}

func TestWritePredictionText(t *testing.T) {
	cfg := testConfig(t)
	report := &schema.PredictionReport{
		Predictions: schema.Predictions{
			High:   []schema.Prediction{{Need: "Composable extraction", Reason: "4 components likely share logic", Action: "Create composables/"}},
			Medium: []schema.Prediction{{Need: "State management setup", Action: "Setup Pinia stores for application state"}},
		},
		Recommendations: []schema.KernelRecommendation{{Action: "Activate nuxt_component_architecture.spr", Command: "npm run spr:activate component_architecture"}},
	}

	var buf bytes.Buffer
	require.NoError(t, writePredictionText(&buf, report, cfg))
	out := buf.String()
	assert.Contains(t, out, "=== Prediction Results ===")
	assert.Contains(t, out, "High Probability Needs:")
	assert.Contains(t, out, "  1. Composable extraction")
	assert.Contains(t, out, "     Reason: 4 components likely share logic")
	assert.Contains(t, out, "Medium Probability Needs:")
	assert.Contains(t, out, "SPR Recommendations:")
	assert.Contains(t, out, "     Command: npm run spr:activate component_architecture")
	assert.Contains(t, out, "Predictions saved to: ")
}

func TestWritePredictionCSV(t *testing.T) {
	report := &schema.PredictionReport{Predictions: schema.Predictions{
		Low: []schema.Prediction{{Need: "Authentication middleware", Reason: "r", Action: "a", Kernel: "nuxt_api_patterns"}},
	}}
	var buf bytes.Buffer
	require.NoError(t, writePredictionCSV(&buf, report))
	assert.Equal(t, "probability,need,reason,action,kernel\nlow,Authentication middleware,r,a,nuxt_api_patterns\n", buf.String())
}

func TestWriteActivationText(t *testing.T) {
	cfg := testConfig(t)
	a := &schema.Activation{
		Kernel:      "api_patterns",
		Description: "Server-side API development, middleware, authentication, and database integration",
		Stats:       schema.KernelStats{Concepts: 4, Sections: 2, Size: 2048},
		KeyPatterns: []string{"routes: server/api"},
		Connections: []string{"a -> b", "b -> c", "c -> d", "d -> e"},
		Savings:     schema.TokenSavings{KernelTokens: 512, BaselineTokens: 25600, TokenSavings: 25088, EfficiencyGained: 98},
		NextSteps:   []string{"Add proper error handling and logging"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeActivationText(&buf, a, cfg, 3))
	out := buf.String()
	assert.Contains(t, out, "  Size: 2.0KB")
	assert.Contains(t, out, "✓ routes: server/api")
	assert.Contains(t, out, "c -> d")
	assert.NotContains(t, out, "d -> e")
	assert.Contains(t, out, "Kernel: nuxt_api_patterns")
	assert.Contains(t, out, "Status: ACTIVE")
	assert.Contains(t, out, "Token efficiency: 98.0% (512 vs 25600)")
	assert.Contains(t, out, "Kernel api_patterns successfully activated")
}

func TestWriteBenchmarkText(t *testing.T) {
	cfg := testConfig(t)
	report := &schema.BenchmarkReport{
		Metrics: schema.BenchmarkMetrics{
			BuildTime:  schema.BuildTiming{SectionResult: schema.SectionResult{Success: true}, BuildTimeSeconds: 12.5},
			BundleSize: schema.BundleSize{SectionResult: schema.SectionResult{Error: "Build output not found. Run build first."}},
			APIRoutes:  schema.APIRoutes{SectionResult: schema.SectionResult{Success: true}, RouteCount: 3, Recommendation: "Good API structure"},
		},
		Rating:          schema.Rating{Score: 100, Rating: "★★★★★ Excellent"},
		Recommendations: []string{"Improve performance score with lazy loading and optimization"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeBenchmarkText(&buf, report, cfg))
	out := buf.String()
	assert.Contains(t, out, "Build Time: 12.50s")
	assert.Contains(t, out, "Bundle Size: Build output not found. Run build first.")
	assert.Contains(t, out, "API Routes: 3 (Good API structure)")
	assert.Contains(t, out, "Overall Rating: ★★★★★ Excellent (100/100)")
	assert.Contains(t, out, "  • Improve performance score")
}

func TestWriteCoverageText(t *testing.T) {
	cfg := testConfig(t)
	failing := &schema.CoverageReport{
		Coverage:        schema.CoverageMetrics{Lines: 75.5, Functions: 90, Branches: 80, Statements: 85},
		Failures:        []string{"lines: 75.5% < 80% required"},
		Recommendations: []string{"Add more unit tests to improve line coverage"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCoverageText(&buf, failing, cfg))
	out := buf.String()
	assert.Contains(t, out, "  Lines: 75.5%")
	assert.Contains(t, out, "✗ Coverage validation FAILED")
	assert.Contains(t, out, "  lines: 75.5% < 80% required")
	assert.Contains(t, out, "  • Add more unit tests to improve line coverage")

	passing := &schema.CoverageReport{Passed: true, Rating: "★★★★★ Excellent coverage (92.0%)"}
	buf.Reset()
	require.NoError(t, writeCoverageText(&buf, passing, cfg))
	assert.Contains(t, buf.String(), "✓ Coverage validation PASSED")
	assert.Contains(t, buf.String(), "★★★★★ Excellent coverage (92.0%)")
}

func TestWriteCoverageCSV(t *testing.T) {
	report := &schema.CoverageReport{
		Coverage:     schema.CoverageMetrics{Lines: 75.5, Functions: 90, Branches: 80, Statements: 85},
		Requirements: schema.CoverageMetrics{Lines: 80, Functions: 80, Branches: 70, Statements: 80},
	}
	var buf bytes.Buffer
	require.NoError(t, writeCoverageCSV(&buf, report))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "lines,75.5,80,false", lines[1])
	assert.Equal(t, "functions,90,80,true", lines[2])
}

func TestWriteLoopOutput(t *testing.T) {
	cfg := testConfig(t)
	it := schema.LoopIteration{
		Index:       2,
		Total:       5,
		Health:      schema.HealthCheck{Score: 50, Issues: []string{"No Nuxt config found"}},
		Benchmark:   &schema.Rating{Score: 85, Rating: "★★★★☆ Good"},
		Accuracy:    schema.PredictionAccuracy{Accuracy: 90},
		Iterations:  2,
		Failures:    1,
		SuccessRate: "50.0%",
	}

	var buf bytes.Buffer
	require.NoError(t, writeLoopIteration(&buf, it, cfg))
	out := buf.String()
	assert.Contains(t, out, "═══ Iteration 2/5 ═══")
	assert.Contains(t, out, "✗ Health Score: 50/100")
	assert.Contains(t, out, "Issue: No Nuxt config found")
	assert.Contains(t, out, "✓ Performance Score: 85/100 (★★★★☆ Good)")
	assert.Contains(t, out, "✓ Prediction Accuracy: 90%")
	assert.Contains(t, out, "  Success rate: 50.0%")

	report := &schema.LoopReport{Summary: schema.LoopSummary{
		Iterations:      2,
		SuccessRate:     "50.0%",
		Recommendations: []string{"→ System is stable - consider increasing automation level"},
	}}
	buf.Reset()
	require.NoError(t, writeLoopSummary(&buf, report, cfg))
	assert.Contains(t, buf.String(), "═══ Nuxt Development Loop Summary ═══")
	assert.Contains(t, buf.String(), "  → System is stable")
}

func TestGetMaxTablePathWidth(t *testing.T) {
	cfg := &contract.Config{Width: 80}
	assert.Equal(t, 15, GetMaxTablePathWidth(cfg))

	cfg.Width = 125
	assert.Equal(t, 35, GetMaxTablePathWidth(cfg))

	cfg.Width = 400
	assert.Equal(t, 70, GetMaxTablePathWidth(cfg))
}
