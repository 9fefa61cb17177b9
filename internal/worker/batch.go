package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/finnflow/lebensessenz-kursbot/internal/model"
)

// TextAnalyzer defines the interface for analyzing one input line
type TextAnalyzer interface {
	AnalyzeText(ctx context.Context, text string) ([]*model.TrennkostResult, error)
}

// AnalyzeJob represents one input line to analyze
type AnalyzeJob struct {
	Line     string
	Analyzer TextAnalyzer
}

// Execute executes the analyze job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	results, err := j.Analyzer.AnalyzeText(ctx, j.Line)
	return &AnalyzeOutcome{
		Line:    j.Line,
		Results: results,
		Error:   err,
	}
}

// AnalyzeOutcome represents the result of an analyze job
type AnalyzeOutcome struct {
	Line    string
	Results []*model.TrennkostResult
	Error   error
}

// GetError returns the error from the outcome
func (o *AnalyzeOutcome) GetError() error {
	return o.Error
}

// BatchProcessor analyzes multiple input lines concurrently
type BatchProcessor struct {
	analyzer    TextAnalyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer TextAnalyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessLines analyzes input lines concurrently
func (b *BatchProcessor) ProcessLines(ctx context.Context, lines []string) []*AnalyzeOutcome {
	if len(lines) == 0 {
		return []*AnalyzeOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, line := range lines {
		pool.Submit(&AnalyzeJob{
			Line:     line,
			Analyzer: b.analyzer,
		})
	}

	results := pool.Wait()

	outcomes := make([]*AnalyzeOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*AnalyzeOutcome)
	}
	return outcomes
}

// ProcessFile reads input lines from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeOutcome, error) {
	lines, err := ReadLinesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b.ProcessLines(ctx, lines), nil
}

// ReadLinesFromFile reads dish descriptions from a file (one per line),
// skipping blanks and # comments, deduplicating repeated lines
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return lines, nil
}
