package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/pipeline"
)

// Analyzer is the part of the pipeline the batch processor drives
type Analyzer interface {
	Analyze(ctx context.Context, doc pipeline.Document) (*model.Report, error)
	ScanURL(ctx context.Context, rawURL string) (*model.Report, error)
}

// AnalyzeJob analyzes one document, or scans one URL when Doc is nil
type AnalyzeJob struct {
	Index    int
	URL      string
	Doc      *pipeline.Document
	Analyzer Analyzer
}

// Execute runs the job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	res := &BatchResult{Index: j.Index, Source: j.URL}
	if j.Doc != nil {
		res.Source = j.Doc.ID
		res.Report, res.Error = j.Analyzer.Analyze(ctx, *j.Doc)
	} else {
		res.Report, res.Error = j.Analyzer.ScanURL(ctx, j.URL)
	}
	return res
}

// BatchResult is the outcome of one batch item
type BatchResult struct {
	Index  int
	Source string // URL or document id
	Report *model.Report
	Error  error
}

// GetError returns the error from the batch result
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many documents or URLs concurrently
type BatchProcessor struct {
	analyzer  Analyzer
	workers   int
	queueSize int
	logger    logging.Logger
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(analyzer Analyzer, cfg model.ConcurrencyConfig, logger logging.Logger) *BatchProcessor {
	return &BatchProcessor{
		analyzer:  analyzer,
		workers:   cfg.Workers,
		queueSize: cfg.QueueSize,
		logger:    logging.OrNop(logger),
	}
}

// ProcessURLs scans every URL. Results come back in input order.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*BatchResult {
	jobs := make([]*AnalyzeJob, len(urls))
	for i, u := range urls {
		jobs[i] = &AnalyzeJob{Index: i, URL: u, Analyzer: b.analyzer}
	}
	return b.run(ctx, jobs)
}

// ProcessDocuments analyzes every document. Results come back in input order.
func (b *BatchProcessor) ProcessDocuments(ctx context.Context, docs []pipeline.Document) []*BatchResult {
	jobs := make([]*AnalyzeJob, len(docs))
	for i := range docs {
		jobs[i] = &AnalyzeJob{Index: i, Doc: &docs[i], Analyzer: b.analyzer}
	}
	return b.run(ctx, jobs)
}

// ProcessFile reads URLs from a file and scans them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*BatchResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

func (b *BatchProcessor) run(ctx context.Context, jobs []*AnalyzeJob) []*BatchResult {
	if len(jobs) == 0 {
		return []*BatchResult{}
	}

	pool := NewPool(ctx, b.workers, b.queueSize)
	pool.Start()

	go func() {
		defer pool.Close()
		for _, job := range jobs {
			if !pool.Submit(job) {
				return
			}
		}
	}()

	results := make([]*BatchResult, 0, len(jobs))
	failed := 0
	for r := range pool.Results() {
		res := r.(*BatchResult)
		if res.Error != nil {
			failed++
			b.logger.Warn("batch item failed", logging.String("source", res.Source), logging.Error(res.Error))
		}
		results = append(results, res)
	}

	// jobs never reached by a cancelled pool are reported as cancelled
	if len(results) < len(jobs) {
		cause := context.Cause(ctx)
		if cause == nil {
			cause = context.Canceled
		}
		done := make(map[int]bool, len(results))
		for _, r := range results {
			done[r.Index] = true
		}
		for _, job := range jobs {
			if !done[job.Index] {
				src := job.URL
				if job.Doc != nil {
					src = job.Doc.ID
				}
				results = append(results, &BatchResult{Index: job.Index, Source: src, Error: cause})
				failed++
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	b.logger.Info("batch finished", logging.Int("items", len(jobs)), logging.Int("failed", failed))
	return results
}

// ReadURLsFromFile reads URLs from a file (one per line). Blank lines and
// # comments are skipped; duplicates keep their first position.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
