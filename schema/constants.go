// Package schema has the models, reports and constants shared by every part of patternscan.
package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// Priority represents the urgency of a suggestion or prediction.
	Priority string

	// SuggestionType tags the kind of optimization a suggestion proposes.
	SuggestionType string

	// Category is a coarse file role inferred from the file path.
	Category string

	// ProbeState is the tri-state result of a capability probe.
	ProbeState string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Suggestion and prediction priorities.
const (
	HighPriority   Priority = "high"
	MediumPriority Priority = "medium"
	LowPriority    Priority = "low"
)

// Suggestion types emitted by the suggestion rules.
const (
	ComposableExtraction   SuggestionType = "composable_extraction"
	ComposableOptimization SuggestionType = "composable_optimization"
	MiddlewareExtraction   SuggestionType = "middleware_extraction"
	DatabaseOptimization   SuggestionType = "database_optimization"
	BundleOptimization     SuggestionType = "bundle_optimization"
)

// File categories, in categorization order.
const (
	ComponentCategory  Category = "component"
	PageCategory       Category = "page"
	APICategory        Category = "api"
	ComposableCategory Category = "composable"
	LayoutCategory     Category = "layout"
	MiddlewareCategory Category = "middleware"
	PluginCategory     Category = "plugin"
)

// Probe results.
const (
	Present    ProbeState = "present"
	Absent     ProbeState = "absent"
	Unreadable ProbeState = "unreadable"
)

// AllCategories lists the file categories in the order they are assigned.
var AllCategories = []Category{
	ComponentCategory,
	PageCategory,
	APICategory,
	ComposableCategory,
	LayoutCategory,
	MiddlewareCategory,
	PluginCategory,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
