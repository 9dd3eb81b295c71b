package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/outwriter"
	"github.com/huangsam/patternscan/schema"
)

// ErrKernelNotFound is returned when the requested kernel file does not exist.
var ErrKernelNotFound = errors.New("kernel not found")

// Token estimation constants. One token is roughly four bytes and the baseline
// assumes about 100KB of source files read without a kernel.
const (
	bytesPerToken       = 4
	activationBaseline  = 100 * 1024
	maxKeyPatterns      = 8
	maxShownConnections = 3
)

// KnownKernels lists the kernels shipped with a Nuxt project template.
var KnownKernels = []string{"component_architecture", "api_patterns", "performance_optimization"}

var kernelDescriptions = map[string]string{
	"component_architecture":   "Component composition, routing, SSR patterns, and auto-imports",
	"api_patterns":             "Server-side API development, middleware, authentication, and database integration",
	"performance_optimization": "Bundle optimization, image handling, SSR performance, and monitoring",
}

var kernelNextSteps = map[string][]string{
	"component_architecture": {
		"Review component structure and extract shared composables",
		"Optimize SSR/SPA rendering strategies",
		"Implement proper layout hierarchy",
	},
	"api_patterns": {
		"Implement API middleware for authentication/validation",
		"Optimize database queries and caching",
		"Add proper error handling and logging",
	},
	"performance_optimization": {
		"Run lighthouse audit: npm run benchmark:lighthouse",
		"Analyze bundle size: npm run benchmark:bundle",
		"Optimize images and lazy loading",
	},
}

// KernelDescription returns the description of a kernel.
func KernelDescription(kernel string) string {
	if d, ok := kernelDescriptions[kernel]; ok {
		return d
	}
	return "Nuxt.js development patterns"
}

// KernelPath returns the file of a kernel inside the kernels directory.
func KernelPath(kernelsDir, kernel string) string {
	return filepath.Join(kernelsDir, "nuxt_"+kernel+".spr")
}

// AnalyzeKernel counts concepts and sections of kernel content.
func AnalyzeKernel(content string) schema.KernelStats {
	stats := schema.KernelStats{Size: int64(len(content))}
	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") {
			stats.Concepts++
		}
		if strings.HasPrefix(trimmed, "##") {
			stats.Sections++
		}
	}
	return stats
}

// ExtractKeyPatterns returns up to eight "- key: value" concepts.
func ExtractKeyPatterns(content string) []string {
	patterns := []string{}
	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") && strings.Contains(trimmed, ":") {
			patterns = append(patterns, strings.TrimSpace(trimmed[1:]))
			if len(patterns) == maxKeyPatterns {
				break
			}
		}
	}
	return patterns
}

// ExtractConnections returns every line describing a graph edge.
func ExtractConnections(content string) []string {
	connections := []string{}
	for line := range strings.SplitSeq(content, "\n") {
		if strings.Contains(line, "→") || strings.Contains(line, "->") {
			connections = append(connections, strings.TrimSpace(line))
		}
	}
	return connections
}

// TokenSavingsFor estimates the context saved by a kernel of the given size.
func TokenSavingsFor(size int64) schema.TokenSavings {
	kernelTokens := int(math.Ceil(float64(size) / bytesPerToken))
	baseline := int(math.Ceil(float64(activationBaseline) / bytesPerToken))
	savings := baseline - kernelTokens
	gain := float64(savings) / float64(baseline) * 100
	return schema.TokenSavings{
		KernelTokens:     kernelTokens,
		BaselineTokens:   baseline,
		TokenSavings:     savings,
		EfficiencyGained: math.Round(gain*10) / 10,
	}
}

// validateKernelName rejects names that would escape the kernels directory.
func validateKernelName(kernel string) error {
	if kernel == "" {
		return fmt.Errorf("no kernel specified. Available kernels: %s", strings.Join(KnownKernels, ", "))
	}
	if strings.ContainsAny(kernel, `/\`) || strings.Contains(kernel, "..") {
		return fmt.Errorf("invalid kernel name %q", kernel)
	}
	return nil
}

// Activate loads a kernel, records the activation and marks it active.
func Activate(_ context.Context, cfg *contract.Config, kernel string) (*schema.Activation, error) {
	if err := validateKernelName(kernel); err != nil {
		return nil, err
	}

	path := KernelPath(cfg.KernelsDir, kernel)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKernelNotFound, path)
		}
		return nil, fmt.Errorf("cannot read kernel: %w", err)
	}
	content := string(data)
	stats := AnalyzeKernel(content)

	activation := &schema.Activation{
		Kernel:      kernel,
		File:        path,
		Description: KernelDescription(kernel),
		Stats:       stats,
		KeyPatterns: ExtractKeyPatterns(content),
		Connections: ExtractConnections(content),
		Savings:     TokenSavingsFor(stats.Size),
		NextSteps:   kernelNextSteps[kernel],
	}

	entry := schema.ActivationLogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Kernel:    kernel,
		Stats:     stats,
		Activated: true,
	}
	if err := outwriter.AppendBoundedLog(cfg.StatePath(contract.ActivationLogName), entry, contract.HistoryLimit, cfg.Log()); err != nil {
		return nil, err
	}
	if err := outwriter.WriteFileAtomic(cfg.StatePath(contract.ActiveKernelName), []byte(kernel)); err != nil {
		return nil, err
	}
	return activation, nil
}

// ExecuteActivate activates a kernel and prints the summary.
func ExecuteActivate(ctx context.Context, cfg *contract.Config, kernel string) error {
	activation, err := Activate(ctx, cfg, kernel)
	if err != nil {
		return err
	}
	if shouldSuppressOutput(ctx) {
		return nil
	}
	return outwriter.NewOutWriter().WriteActivation(activation, cfg, maxShownConnections)
}
