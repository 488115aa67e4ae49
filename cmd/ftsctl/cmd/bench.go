package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type benchOptions struct {
	baseURL     string
	index       string
	field       string
	concurrency int
	duration    time.Duration
	queries     []string
	num         int
}

var defaultBenchQueries = []string{
	"search", "index", "document", "keyword", "highlight",
	"paging", "cursor", "update", "delete", "spreadsheet",
}

// benchStats accumulates the outcome of every request of a run.
type benchStats struct {
	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	statuses  map[int]int64
}

func newBenchStats() *benchStats {
	return &benchStats{
		latencies: make([]time.Duration, 0, 10000),
		statuses:  make(map[int]int64),
	}
}

func (s *benchStats) record(d time.Duration, status int, err error) {
	s.total.Add(1)
	if err != nil {
		s.failed.Add(1)
		return
	}
	if status >= 200 && status < 300 {
		s.succeeded.Add(1)
	} else {
		s.failed.Add(1)
	}

	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.statuses[status]++
	s.mu.Unlock()
}

func newBenchCmd() *cobra.Command {
	opts := benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load-test the search endpoint of a running service",
		Example: `  ftsctl bench --url http://localhost:8080 --index people --field bio -c 20 -d 30s
  ftsctl bench --index people --field bio -q hiking -q climbing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			if len(opts.queries) == 0 {
				opts.queries = defaultBenchQueries
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Target:      %s\n", opts.baseURL)
			fmt.Fprintf(w, "Index:       %s (%s)\n", opts.index, opts.field)
			fmt.Fprintf(w, "Concurrency: %d\n", opts.concurrency)
			fmt.Fprintf(w, "Duration:    %s\n\n", opts.duration)

			start := time.Now()
			stats, err := runBench(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printBench(w, stats, time.Since(start))
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the search service")
	cmd.Flags().StringVar(&opts.index, "index", "", "Index to query")
	cmd.Flags().StringVar(&opts.field, "field", "", "Field to query")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 10, "Concurrent workers")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 30*time.Second, "Test duration")
	cmd.Flags().StringArrayVarP(&opts.queries, "query", "q", nil, "Query to send; repeatable (defaults to a built-in list)")
	cmd.Flags().IntVarP(&opts.num, "num", "n", 10, "Page size of each search")
	_ = cmd.MarkFlagRequired("index")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func runBench(ctx context.Context, opts benchOptions) (*benchStats, error) {
	stats := newBenchStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        opts.concurrency * 2,
			MaxIdleConnsPerHost: opts.concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	defer client.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.concurrency; w++ {
		worker := w
		g.Go(func() error {
			for i := worker; gctx.Err() == nil; i++ {
				req, err := http.NewRequestWithContext(gctx, http.MethodGet, opts.searchURL(opts.queries[i%len(opts.queries)]), nil)
				if err != nil {
					return err
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					// the deadline ending the run is not a failed request
					if gctx.Err() != nil {
						return nil
					}
					stats.record(elapsed, 0, err)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.record(elapsed, resp.StatusCode, nil)
			}
			return nil
		})
	}
	return stats, g.Wait()
}

func (o benchOptions) searchURL(query string) string {
	q := url.Values{
		"indexName":        {o.index},
		"searchFieldName":  {o.field},
		"resultFieldNames": {o.field},
		"keyword":          {query},
		"num":              {fmt.Sprint(o.num)},
	}
	return o.baseURL + "/api/v1/search?" + q.Encode()
}

func printBench(w io.Writer, stats *benchStats, elapsed time.Duration) error {
	total := stats.total.Load()
	failed := stats.failed.Load()

	fmt.Fprintf(w, "Requests:    %d\n", total)
	fmt.Fprintf(w, "Successful:  %d\n", stats.succeeded.Load())
	fmt.Fprintf(w, "Errors:      %d\n", failed)
	if total == 0 {
		return fmt.Errorf("no requests completed; is the service running?")
	}
	fmt.Fprintf(w, "Error rate:  %.2f%%\n", float64(failed)/float64(total)*100)
	fmt.Fprintf(w, "Req/sec:     %.2f\n", float64(total)/elapsed.Seconds())

	stats.mu.Lock()
	defer stats.mu.Unlock()

	latencies := append([]time.Duration(nil), stats.latencies...)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	if len(latencies) > 0 {
		fmt.Fprintln(w, "\nLatency")
		fmt.Fprintf(w, "  min  %s\n", latencies[0])
		fmt.Fprintf(w, "  p50  %s\n", percentile(latencies, 50))
		fmt.Fprintf(w, "  p95  %s\n", percentile(latencies, 95))
		fmt.Fprintf(w, "  p99  %s\n", percentile(latencies, 99))
		fmt.Fprintf(w, "  max  %s\n", latencies[len(latencies)-1])
	}

	codes := make([]int, 0, len(stats.statuses))
	for code := range stats.statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	fmt.Fprintln(w, "\nStatus codes")
	for _, code := range codes {
		fmt.Fprintf(w, "  %d  %d\n", code, stats.statuses[code])
	}
	return nil
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
