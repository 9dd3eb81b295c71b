package schema

// KernelStats describes the structure of a knowledge kernel file.
type KernelStats struct {
	Concepts int   `json:"concepts"`
	Sections int   `json:"sections"`
	Size     int64 `json:"size"`
}

// TokenSavings estimates the context saved by loading a kernel.
type TokenSavings struct {
	KernelTokens     int     `json:"sprTokens"`
	BaselineTokens   int     `json:"equivalentFileTokens"`
	TokenSavings     int     `json:"tokenSavings"`
	EfficiencyGained float64 `json:"efficiencyGain"`
}

// Activation is the result of activating a kernel.
type Activation struct {
	Kernel      string       `json:"kernel"`
	File        string       `json:"file"`
	Description string       `json:"description"`
	Stats       KernelStats  `json:"stats"`
	KeyPatterns []string     `json:"keyPatterns"`
	Connections []string     `json:"connections"`
	Savings     TokenSavings `json:"savings"`
	NextSteps   []string     `json:"nextSteps"`
}

// ActivationLogEntry is one line of the bounded activation log.
type ActivationLogEntry struct {
	Timestamp string      `json:"timestamp"`
	Kernel    string      `json:"kernel"`
	Stats     KernelStats `json:"stats"`
	Activated bool        `json:"activated"`
}

// SectionResult is embedded in every benchmark section so partial failures
// stay visible in the report.
type SectionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BuildTiming is the build-time benchmark section.
type BuildTiming struct {
	SectionResult
	BuildTimeMs      int64   `json:"buildTime,omitempty"`
	BuildTimeSeconds float64 `json:"buildTimeSeconds,omitempty"`
}

// BundleSize is the bundle-size benchmark section.
type BundleSize struct {
	SectionResult
	TotalBytes  int64  `json:"totalBytes,omitempty"`
	ClientBytes int64  `json:"clientBytes,omitempty"`
	ServerBytes int64  `json:"serverBytes,omitempty"`
	TotalSize   string `json:"totalSize,omitempty"`
	ClientSize  string `json:"clientSize,omitempty"`
	ServerSize  string `json:"serverSize,omitempty"`
}

// KernelEfficiency is the kernel-efficiency benchmark section.
type KernelEfficiency struct {
	SectionResult
	TotalKernelBytes int64   `json:"totalSprBytes,omitempty"`
	TotalConcepts    int     `json:"totalConcepts,omitempty"`
	CompressionRatio float64 `json:"compressionRatio,omitempty"`
	Efficiency       float64 `json:"efficiency,omitempty"`
	KernelTokens     int     `json:"sprTokens,omitempty"`
	FileTokens       int     `json:"fileTokens,omitempty"`
	TokenReduction   float64 `json:"tokenReduction,omitempty"`
}

// APIRoutes is the API route benchmark section.
type APIRoutes struct {
	SectionResult
	RouteCount     int    `json:"apiRouteCount"`
	Status         string `json:"status,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// AuditScores is the lighthouse audit benchmark section.
type AuditScores struct {
	SectionResult
	Performance   int `json:"performance,omitempty"`
	Accessibility int `json:"accessibility,omitempty"`
	BestPractices int `json:"bestPractices,omitempty"`
	SEO           int `json:"seo,omitempty"`
}

// Average returns the mean of the four audit scores.
func (a AuditScores) Average() float64 {
	return float64(a.Performance+a.Accessibility+a.BestPractices+a.SEO) / 4
}

// BenchmarkMetrics holds every benchmark section.
type BenchmarkMetrics struct {
	BuildTime        BuildTiming      `json:"buildTime"`
	BundleSize       BundleSize       `json:"bundleSize"`
	KernelEfficiency KernelEfficiency `json:"sprEfficiency"`
	APIRoutes        APIRoutes        `json:"apiPerformance"`
	Lighthouse       AuditScores      `json:"lighthouse"`
}

// Rating is the overall benchmark score.
type Rating struct {
	Score  int    `json:"score"`
	Rating string `json:"rating"`
}

// BenchmarkReport is the document written by the benchmark command.
type BenchmarkReport struct {
	Timestamp       string           `json:"timestamp"`
	Metrics         BenchmarkMetrics `json:"metrics"`
	Rating          Rating           `json:"rating"`
	Recommendations []string         `json:"recommendations"`
	NextSteps       []string         `json:"nextSteps"`
}

// CoverageMetrics holds coverage percentages.
type CoverageMetrics struct {
	Lines      float64 `json:"lines"`
	Functions  float64 `json:"functions"`
	Branches   float64 `json:"branches"`
	Statements float64 `json:"statements"`
}

// Average returns the mean of the four percentages.
func (c CoverageMetrics) Average() float64 {
	return (c.Lines + c.Functions + c.Branches + c.Statements) / 4
}

// TestDistribution counts unit and integration test files.
type TestDistribution struct {
	Unit               int `json:"unit"`
	Integration        int `json:"integration"`
	Total              int `json:"total"`
	UnitPercent        int `json:"unitPercent"`
	IntegrationPercent int `json:"integrationPercent"`
}

// CoverageReport is the document written by the coverage command.
type CoverageReport struct {
	Timestamp       string           `json:"timestamp"`
	Passed          bool             `json:"passed"`
	Coverage        CoverageMetrics  `json:"coverage"`
	Requirements    CoverageMetrics  `json:"requirements"`
	Distribution    TestDistribution `json:"testDistribution"`
	Failures        []string         `json:"failures"`
	Recommendations []string         `json:"recommendations"`
	Rating          string           `json:"rating,omitempty"`
}

// HealthCheck is the project health score used by the development loop.
type HealthCheck struct {
	Score  int      `json:"score"`
	Issues []string `json:"issues"`
}

// PredictionAccuracy estimates how fresh the last predictions are.
type PredictionAccuracy struct {
	Accuracy         int    `json:"accuracy"`
	PredictionsCount int    `json:"predictionsCount,omitempty"`
	Age              string `json:"age,omitempty"`
	Message          string `json:"message,omitempty"`
}

// LoopSummary is the final summary of a development loop.
type LoopSummary struct {
	Timestamp       string   `json:"timestamp"`
	Iterations      int      `json:"iterations"`
	Improvements    int      `json:"improvements"`
	Failures        int      `json:"failures"`
	SuccessRate     string   `json:"successRate"`
	Recommendations []string `json:"recommendations"`
}

// LoopReport is the document written by the loop command.
type LoopReport struct {
	Summary     LoopSummary `json:"summary"`
	DetailedLog []string    `json:"detailedLog"`
}

// LoopIteration is the status of the development loop after one iteration.
type LoopIteration struct {
	Index        int                `json:"index"`
	Total        int                `json:"total"`
	Health       HealthCheck        `json:"health"`
	Benchmark    *Rating            `json:"benchmark,omitempty"`
	Accuracy     PredictionAccuracy `json:"accuracy"`
	Iterations   int                `json:"iterations"`
	Improvements int                `json:"improvements"`
	Failures     int                `json:"failures"`
	SuccessRate  string             `json:"successRate"`
}
