package schema

import "time"

// ModificationPattern summarizes where recent edits happened.
type ModificationPattern string

// Recognized modification patterns.
const (
	ComponentFocused ModificationPattern = "component-focused"
	APIDevelopment   ModificationPattern = "api-development"
	PageDevelopment  ModificationPattern = "page-development"
	UnknownPattern   ModificationPattern = "unknown"
)

// ProjectStructure is the capability-probe view of a project.
type ProjectStructure struct {
	Pages          ProbeState `json:"pages"`
	Components     ProbeState `json:"components"`
	Composables    ProbeState `json:"composables"`
	ServerAPI      ProbeState `json:"serverApi"`
	Layouts        ProbeState `json:"layouts"`
	Plugins        ProbeState `json:"plugins"`
	Middleware     ProbeState `json:"middleware"`
	PageCount      int        `json:"pageCount"`
	ComponentCount int        `json:"componentCount"`
	APICount       int        `json:"apiCount"`
}

// RecentFile is a file modified inside the recent-activity window.
type RecentFile struct {
	Path     string    `json:"path"`
	Modified time.Time `json:"modified"`
	Type     string    `json:"type"`
}

// RecentActivity describes files changed recently.
type RecentActivity struct {
	RecentFiles         []RecentFile        `json:"recentFiles"`
	ModificationPattern ModificationPattern `json:"modificationPattern"`
}

// Prediction is an anticipated developer need.
type Prediction struct {
	Need   string `json:"need"`
	Reason string `json:"reason"`
	Action string `json:"action"`
	Kernel string `json:"sprKernel"`
}

// Predictions groups predictions by probability band.
type Predictions struct {
	High   []Prediction `json:"highProbability"`
	Medium []Prediction `json:"mediumProbability"`
	Low    []Prediction `json:"lowProbability"`
}

// KernelRecommendation suggests activating a knowledge kernel.
type KernelRecommendation struct {
	Action  string `json:"action"`
	Reason  string `json:"reason"`
	Command string `json:"command"`
}

// PredictionReport is the document written by the predict command.
type PredictionReport struct {
	Timestamp       string                 `json:"timestamp"`
	Structure       ProjectStructure       `json:"structure"`
	Activity        RecentActivity         `json:"activity"`
	Predictions     Predictions            `json:"predictions"`
	Recommendations []KernelRecommendation `json:"sprRecommendations"`
	NextActions     []string               `json:"nextActions"`
}
