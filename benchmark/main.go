// Package main measures patternscan execution times across Nuxt projects of
// different sizes, comparing runs without the scan cache against cold and warm
// runs of the SQLite cache. Results are written to a timestamped CSV file.
//
// Prerequisites:
// - patternscan binary installed and available in PATH
// - Nuxt projects checked out below the base directory
//
// Usage: go run benchmark/main.go [project-base-dir] [project...]
//
//	project-base-dir: Directory containing the Nuxt projects
//	project:          Optional project names; defaults to every subdirectory
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Project     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	BaseDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Projects    []string
}

// benchmarkCommands are the patternscan invocations timed per project.
var benchmarkCommands = []struct {
	name string
	args []string
}{
	{"patterns", []string{"patterns", "--output", "json", "--output-file", os.DevNull}},
	{"patterns-all", []string{"patterns", "--respect-gitignore=false", "--output", "json", "--output-file", os.DevNull}},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s [project-base-dir] [project...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		BaseDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Projects:    os.Args[2:],
	}

	if err := checkPrerequisites(&config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("patternscan", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the binary and the projects exist, and
// fills in the project list when none was given.
func checkPrerequisites(config *BenchmarkConfig) error {
	if _, err := exec.LookPath("patternscan"); err != nil {
		return errors.New("patternscan binary not found in PATH")
	}

	if len(config.Projects) == 0 {
		entries, err := os.ReadDir(config.BaseDir)
		if err != nil {
			return fmt.Errorf("cannot list %s: %w", config.BaseDir, err)
		}
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				config.Projects = append(config.Projects, e.Name())
			}
		}
	}
	if len(config.Projects) == 0 {
		return fmt.Errorf("no projects found in %s", config.BaseDir)
	}

	for _, project := range config.Projects {
		projectPath := filepath.Join(config.BaseDir, project)
		if _, err := os.Stat(projectPath); os.IsNotExist(err) {
			return fmt.Errorf("project %s not found at %s", project, projectPath)
		}
	}
	return nil
}

// runBenchmarks executes every benchmark command across the configured projects
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d projects, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Projects), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, project := range config.Projects {
		fmt.Printf("Benchmarking %s\n", project)
		projectPath := filepath.Join(config.BaseDir, project)
		for _, c := range benchmarkCommands {
			results = append(results, runBenchmarkSuite(config, project, projectPath, c.name, c.args))
		}
	}
	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, project, projectPath, command string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, project)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, projectPath, args, cacheBackend, numRuns)
		if len(times) == 0 {
			return cold, "TIMEOUT"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Project:     project,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a patternscan command multiple times with the given
// cache backend and returns the cold time and the warm times.
func runBenchmark(config BenchmarkConfig, projectPath string, args []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	full := append([]string{}, args...)
	full = append(full, "--cache-backend", cacheBackend, "--workers", fmt.Sprint(config.Workers), "--log-format", "json", "--log-level", "info")

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		cmd := exec.CommandContext(ctx, "patternscan", full...)
		cmd.Dir = projectPath

		start := time.Now()
		output, err := cmd.CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "Pattern scan finished")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("patternscan_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"project", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Project, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, c := range benchmarkCommands {
		fmt.Printf("%s:\n", c.name)
		for _, result := range results {
			if result.Command == c.name {
				fmt.Printf("  %-20s: No-cache: %s, Cold: %s, Warm: %s\n", result.Project, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
