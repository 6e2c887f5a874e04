// Command schedule_smoke fires a dry-run scheduling request against a running
// instance and reports placement coverage. Useful as a pre-deploy check that a
// semester's data can actually be timetabled.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type runRequest struct {
	Semester      string `json:"semester"`
	Year          int    `json:"year"`
	MaxIterations int    `json:"maxIterations,omitempty"`
	DryRun        bool   `json:"dryRun"`
}

type failedSection struct {
	SectionID  string `json:"sectionId"`
	CourseCode string `json:"courseCode"`
	Reason     string `json:"reason"`
}

type runResult struct {
	Message             string          `json:"message"`
	TotalSections       int             `json:"totalSections"`
	ScheduledSections   int             `json:"scheduledSections"`
	UnscheduledSections int             `json:"unscheduledSections"`
	FailedSections      []failedSection `json:"failedSections"`
	Statistics          struct {
		TotalIterations     int   `json:"totalIterations"`
		BacktrackCount      int   `json:"backtrackCount"`
		ElapsedMilliseconds int64 `json:"elapsedMilliseconds"`
	} `json:"statistics"`
}

type envelope struct {
	Data  runResult `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base          string
		semester      string
		year          int
		maxIterations int
		minCoverage   float64
		timeout       time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&semester, "semester", "", "Semester to schedule (required)")
	flag.IntVar(&year, "year", time.Now().Year(), "Academic year")
	flag.IntVar(&maxIterations, "max-iterations", 0, "Iteration budget override (0 = server default)")
	flag.Float64Var(&minCoverage, "min-coverage", 1.0, "Minimum fraction of sections that must be placed")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "HTTP client timeout")
	flag.Parse()

	if semester == "" {
		log.Fatal("-semester is required")
	}

	client := &http.Client{Timeout: timeout}
	result, err := runDry(client, base, runRequest{
		Semester:      semester,
		Year:          year,
		MaxIterations: maxIterations,
		DryRun:        true,
	})
	if err != nil {
		log.Fatalf("dry run failed: %v", err)
	}

	printReport(semester, year, result)

	if result.TotalSections == 0 {
		fmt.Println("No sections found for this semester.")
		os.Exit(1)
	}
	coverage := float64(result.ScheduledSections) / float64(result.TotalSections)
	if coverage < minCoverage {
		fmt.Printf("Coverage %.1f%% below required %.1f%%\n", coverage*100, minCoverage*100)
		os.Exit(1)
	}
}

func runDry(client *http.Client, base string, req runRequest) (*runResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(base, "/") + "/api/v1/schedule/auto"

	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return &env.Data, nil
}

func printReport(semester string, year int, result *runResult) {
	fmt.Println("Schedule Smoke Report")
	fmt.Println("=====================")
	fmt.Printf("Semester: %s %d\n", semester, year)
	fmt.Printf("Placed: %d/%d (%s)\n", result.ScheduledSections, result.TotalSections, result.Message)
	fmt.Printf("Iterations: %d | Backtracks: %d | Elapsed: %dms\n",
		result.Statistics.TotalIterations, result.Statistics.BacktrackCount, result.Statistics.ElapsedMilliseconds)
	for _, failed := range result.FailedSections {
		fmt.Printf("  [UNPLACED] %s (%s): %s\n", failed.SectionID, failed.CourseCode, failed.Reason)
	}
}
