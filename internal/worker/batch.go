package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"
)

// BatchOptions bounds a batch run. Zero workers means one per CPU.
type BatchOptions struct {
	Workers     int
	TaskTimeout time.Duration
}

// RunBatch executes jobs on a fresh pool, waits for all of them, and returns
// their results in submission order. results[i] belongs to jobs[i].
func RunBatch(ctx context.Context, opts BatchOptions, jobs []Job) []Result {
	if len(jobs) == 0 {
		return []Result{}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	pool := NewPool(ctx, workers, opts.TaskTimeout)
	pool.Start()

	for _, job := range jobs {
		pool.Submit(job)
	}

	completed := pool.Wait()
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].Index < completed[j].Index
	})

	results := make([]Result, len(jobs))
	for _, c := range completed {
		results[c.Index] = c.Result
	}

	// Jobs the pool never ran (context cancelled before dispatch) still get a result.
	for i := range results {
		if results[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("job %d was not executed", i)
			}
			results[i] = &Failure{Err: err}
		}
	}

	return results
}

// ReadVariantsFromFile reads variants from a file (one per line).
// Blank lines and lines starting with # are skipped; duplicates are dropped.
func ReadVariantsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var variants []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			variants = append(variants, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return variants, nil
}
