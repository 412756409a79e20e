// main.go - Load testing tool for the medinsight report endpoints
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"medinsight/internal/reports"
)

// PerfConfig holds the configuration for the performance test
type PerfConfig struct {
	BaseURL     string
	Bundles     []string
	Concurrency int
	Duration    time.Duration
	Timeout     time.Duration
}

// Result captures the result of a single request
type Result struct {
	Bundle     string
	Duration   time.Duration
	StatusCode int
	Degraded   bool
	Error      error
}

// PerfStats aggregates results per bundle
type PerfStats struct {
	mu        sync.Mutex
	Latencies map[string][]time.Duration
	Failures  map[string]int
	Degraded  map[string]int
	Statuses  map[int]int
	Started   time.Time
	Elapsed   time.Duration
}

func NewPerfStats() *PerfStats {
	return &PerfStats{
		Latencies: make(map[string][]time.Duration),
		Failures:  make(map[string]int),
		Degraded:  make(map[string]int),
		Statuses:  make(map[int]int),
		Started:   time.Now(),
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "Base URL of the API")
	bundles := flag.String("bundles", strings.Join(reports.Bundles, ","), "Comma separated bundles to request")
	concurrency := flag.Int("c", 10, "Number of concurrent clients")
	duration := flag.Duration("d", 30*time.Second, "Duration of the test")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	output := flag.String("o", "perf_results.json", "File for the JSON summary, empty to skip")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	config := &PerfConfig{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Bundles:     strings.Split(*bundles, ","),
		Concurrency: *concurrency,
		Duration:    *duration,
		Timeout:     *timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	logger.Info("Starting load test",
		slog.String("url", config.BaseURL),
		slog.Int("concurrency", config.Concurrency),
		slog.Duration("duration", config.Duration))

	stats := NewPerfStats()
	for result := range runTest(ctx, config) {
		stats.Add(result)
	}
	stats.Elapsed = time.Since(stats.Started)

	if err := stats.WriteTable(os.Stdout); err != nil {
		logger.Error("Failed to print results", slog.Any("error", err))
	}
	if *output != "" {
		if err := stats.Save(*output); err != nil {
			logger.Error("Failed to save results", slog.Any("error", err))
			os.Exit(1)
		}
	}
}

// runTest starts the workers and returns a channel closed once they finish
func runTest(ctx context.Context, config *PerfConfig) <-chan Result {
	results := make(chan Result, config.Concurrency*10)
	var wg sync.WaitGroup

	for range config.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: config.Timeout}
			for ctx.Err() == nil {
				bundle := config.Bundles[rand.IntN(len(config.Bundles))]
				results <- sendRequest(ctx, client, config.BaseURL, bundle)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// sendRequest fetches one bundle and notes whether it came back degraded
func sendRequest(ctx context.Context, client *http.Client, baseURL, bundle string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/reports/"+bundle, nil)
	if err != nil {
		return Result{Bundle: bundle, Error: fmt.Errorf("failed to create request: %w", err)}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Result{Bundle: bundle, Duration: time.Since(start), Error: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	result := Result{Bundle: bundle, StatusCode: resp.StatusCode}
	var body struct {
		Meta reports.Meta `json:"meta"`
	}
	data, err := io.ReadAll(resp.Body)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = fmt.Errorf("failed to read body: %w", err)
		return result
	}
	if resp.StatusCode == http.StatusOK && json.Unmarshal(data, &body) == nil {
		result.Degraded = body.Meta.Degraded()
	}
	return result
}

// Add records one result
func (s *PerfStats) Add(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Error != nil || r.StatusCode != http.StatusOK {
		s.Failures[r.Bundle]++
		if r.StatusCode != 0 {
			s.Statuses[r.StatusCode]++
		}
		return
	}
	s.Statuses[r.StatusCode]++
	s.Latencies[r.Bundle] = append(s.Latencies[r.Bundle], r.Duration)
	if r.Degraded {
		s.Degraded[r.Bundle]++
	}
}

// BundleSummary is the per-bundle line of the report
type BundleSummary struct {
	Bundle   string        `json:"bundle"`
	Requests int           `json:"requests"`
	Failed   int           `json:"failed"`
	Degraded int           `json:"degraded"`
	P50      time.Duration `json:"p50_ns"`
	P95      time.Duration `json:"p95_ns"`
	Max      time.Duration `json:"max_ns"`
}

// Summaries returns one summary per bundle sorted by name
func (s *PerfStats) Summaries() []BundleSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]struct{})
	for name := range s.Latencies {
		names[name] = struct{}{}
	}
	for name := range s.Failures {
		names[name] = struct{}{}
	}

	out := make([]BundleSummary, 0, len(names))
	for name := range names {
		latencies := slices.Clone(s.Latencies[name])
		slices.Sort(latencies)
		summary := BundleSummary{
			Bundle:   name,
			Requests: len(latencies) + s.Failures[name],
			Failed:   s.Failures[name],
			Degraded: s.Degraded[name],
			P50:      percentile(latencies, 0.50),
			P95:      percentile(latencies, 0.95),
		}
		if len(latencies) > 0 {
			summary.Max = latencies[len(latencies)-1]
		}
		out = append(out, summary)
	}
	slices.SortFunc(out, func(a, b BundleSummary) int { return strings.Compare(a.Bundle, b.Bundle) })
	return out
}

// percentile picks the nearest-rank value from sorted latencies
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := min(int(float64(len(sorted))*p), len(sorted)-1)
	return sorted[idx]
}

// WriteTable prints the per-bundle results with aligned columns
func (s *PerfStats) WriteTable(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "BUNDLE\tREQUESTS\tFAILED\tDEGRADED\tP50\tP95\tMAX\n")

	total := 0
	for _, b := range s.Summaries() {
		total += b.Requests
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\t%v\t%v\n", b.Bundle, b.Requests, b.Failed, b.Degraded,
			b.P50.Round(time.Microsecond), b.P95.Round(time.Microsecond), b.Max.Round(time.Microsecond))
	}
	if s.Elapsed > 0 {
		fmt.Fprintf(w, "\nRequests per second\t%.1f\n", float64(total)/s.Elapsed.Seconds())
	}
	return w.Flush()
}

// Save writes the summaries as JSON to path
func (s *PerfStats) Save(path string) error {
	data, err := json.MarshalIndent(map[string]any{
		"elapsed_ms": s.Elapsed.Milliseconds(),
		"statuses":   s.Statuses,
		"bundles":    s.Summaries(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
