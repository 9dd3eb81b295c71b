package core

import (
	"context"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/patternscan/core/scan"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/outwriter"
	"github.com/huangsam/patternscan/schema"
)

// Knowledge kernels referenced by predictions.
const (
	ComponentArchitectureKernel   = "nuxt_component_architecture"
	APIPatternsKernel             = "nuxt_api_patterns"
	PerformanceOptimizationKernel = "nuxt_performance_optimization"
)

// recentWindow is how far back a file modification counts as recent activity.
const recentWindow = 24 * time.Hour

// activityDirs are the directories inspected for recent modifications.
var activityDirs = []string{"pages", "components", "composables", "server/api"}

// predictionNextActions are attached to every prediction report.
var predictionNextActions = []string{
	"Run npm run auto:focus to activate relevant SPR kernels",
	"Consider implementing highest probability predictions first",
	"Use npm run patterns:extract after implementing changes",
}

// kernelRecommendations maps a kernel to its activation recommendation, in output order.
var kernelRecommendations = []struct {
	kernel string
	rec    schema.KernelRecommendation
}{
	{ComponentArchitectureKernel, schema.KernelRecommendation{
		Action:  "Activate nuxt_component_architecture.spr",
		Reason:  "Component/layout development patterns detected",
		Command: "npm run spr:activate component_architecture",
	}},
	{APIPatternsKernel, schema.KernelRecommendation{
		Action:  "Activate nuxt_api_patterns.spr",
		Reason:  "API development patterns detected",
		Command: "npm run spr:activate api_patterns",
	}},
	{PerformanceOptimizationKernel, schema.KernelRecommendation{
		Action:  "Activate nuxt_performance_optimization.spr",
		Reason:  "Performance optimization opportunities identified",
		Command: "npm run spr:activate performance_optimization",
	}},
}

// AnalyzeStructure probes the Nuxt directories of a project.
func AnalyzeStructure(root string) schema.ProjectStructure {
	dir := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }

	s := schema.ProjectStructure{
		Composables: scan.Probe(dir("composables")),
		Layouts:     scan.Probe(dir("layouts")),
		Plugins:     scan.Probe(dir("plugins")),
		Middleware:  scan.Probe(dir("middleware")),
	}
	s.PageCount, s.Pages = scan.CountEntries(dir("pages"))
	s.ComponentCount, s.Components = scan.CountEntries(dir("components"))
	s.APICount, s.ServerAPI = scan.CountEntries(dir("server/api"))
	return s
}

// AnalyzeActivity lists entries modified within the recent window and
// classifies where the work is happening.
func AnalyzeActivity(root string, now time.Time) schema.RecentActivity {
	entries := scan.ModifiedSince(root, activityDirs, now.Add(-recentWindow))

	activity := schema.RecentActivity{
		RecentFiles:         make([]schema.RecentFile, 0, len(entries)),
		ModificationPattern: schema.UnknownPattern,
	}
	counts := make(map[string]int)
	for _, e := range entries {
		activity.RecentFiles = append(activity.RecentFiles, schema.RecentFile{Path: e.Rel, Modified: e.ModTime, Type: e.Dir})
		counts[e.Dir]++
	}

	switch {
	case counts["components"] > counts["pages"]:
		activity.ModificationPattern = schema.ComponentFocused
	case counts["server/api"] > 0:
		activity.ModificationPattern = schema.APIDevelopment
	case counts["pages"] > 0:
		activity.ModificationPattern = schema.PageDevelopment
	}
	return activity
}

// GeneratePredictions applies the prediction heuristics. Unreadable probes
// count as absent. Every band is non-nil.
func GeneratePredictions(s schema.ProjectStructure, a schema.RecentActivity) schema.Predictions {
	p := schema.Predictions{
		High:   []schema.Prediction{},
		Medium: []schema.Prediction{},
		Low:    []schema.Prediction{},
	}
	hasServerAPI := s.ServerAPI == schema.Present

	if s.ComponentCount > 3 && s.Composables != schema.Present {
		p.High = append(p.High, schema.Prediction{
			Need:   "Composable extraction",
			Reason: strconv.Itoa(s.ComponentCount) + " components likely share logic",
			Action: "Create composables/ directory and extract shared functionality",
			Kernel: ComponentArchitectureKernel,
		})
	}
	if hasServerAPI && s.APICount > 2 {
		p.High = append(p.High, schema.Prediction{
			Need:   "API middleware optimization",
			Reason: strconv.Itoa(s.APICount) + " API routes could benefit from shared middleware",
			Action: "Implement authentication/validation middleware",
			Kernel: APIPatternsKernel,
		})
	}
	if s.PageCount > 5 && s.Layouts != schema.Present {
		p.High = append(p.High, schema.Prediction{
			Need:   "Layout system implementation",
			Reason: strconv.Itoa(s.PageCount) + " pages would benefit from shared layouts",
			Action: "Create layouts/default.vue and page-specific layouts",
			Kernel: ComponentArchitectureKernel,
		})
	}

	if a.ModificationPattern == schema.ComponentFocused {
		p.Medium = append(p.Medium, schema.Prediction{
			Need:   "Component performance optimization",
			Reason: "Heavy component development suggests optimization needs",
			Action: "Implement lazy loading and dynamic imports",
			Kernel: PerformanceOptimizationKernel,
		})
	}
	if s.Pages == schema.Present && hasServerAPI {
		p.Medium = append(p.Medium, schema.Prediction{
			Need:   "State management setup",
			Reason: "Full-stack app likely needs centralized state",
			Action: "Setup Pinia stores for application state",
			Kernel: ComponentArchitectureKernel,
		})
	}

	if s.Middleware != schema.Present && hasServerAPI {
		p.Low = append(p.Low, schema.Prediction{
			Need:   "Authentication middleware",
			Reason: "API routes often need authentication",
			Action: "Implement route protection middleware",
			Kernel: APIPatternsKernel,
		})
	}
	return p
}

// RecommendKernels returns activation recommendations for kernels cited by
// high and medium predictions.
func RecommendKernels(p schema.Predictions) []schema.KernelRecommendation {
	var needed []string
	for _, pred := range slices.Concat(p.High, p.Medium) {
		needed = append(needed, pred.Kernel)
	}

	out := []schema.KernelRecommendation{}
	for _, kr := range kernelRecommendations {
		if slices.Contains(needed, kr.kernel) {
			out = append(out, kr.rec)
		}
	}
	return out
}

// Predict builds the prediction report and writes it to the state directory.
func Predict(_ context.Context, cfg *contract.Config) (*schema.PredictionReport, error) {
	now := time.Now()
	structure := AnalyzeStructure(cfg.RepoPath)
	activity := AnalyzeActivity(cfg.RepoPath, now)
	predictions := GeneratePredictions(structure, activity)

	report := &schema.PredictionReport{
		Timestamp:       now.UTC().Format(time.RFC3339Nano),
		Structure:       structure,
		Activity:        activity,
		Predictions:     predictions,
		Recommendations: RecommendKernels(predictions),
		NextActions:     predictionNextActions,
	}
	if err := outwriter.WriteJSONFile(cfg.StatePath(contract.PredictionReportName), report); err != nil {
		return nil, err
	}
	return report, nil
}

// ExecutePredict runs the prediction heuristics and prints the result.
func ExecutePredict(ctx context.Context, cfg *contract.Config) error {
	report, err := Predict(ctx, cfg)
	if err != nil {
		return err
	}
	if shouldSuppressOutput(ctx) {
		return nil
	}
	return outwriter.NewOutWriter().WritePredictions(report, cfg)
}
