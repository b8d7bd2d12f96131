package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/keywatch/internal/pipeline"
	"github.com/ppiankov/keywatch/internal/worker"
)

var (
	batchDocs    bool
	batchWorkers int
	batchOutDir  string
	batchFormat  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Match many URLs or JSONL documents concurrently",
	Long: `Batch processes a file of URLs (one per line, # comments allowed) or,
with --docs, a JSONL file of documents:

  {"id":"42","platform":"twitter","content":"...","metadata":{"engagement_score":120}}

One report per item is written to the output directory.

Example:
  keywatch batch -r rules.yaml urls.txt --workers 8
  keywatch batch -r rules.yaml --docs posts.jsonl --format both`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().BoolVar(&batchDocs, "docs", false, "input is a JSONL document file instead of URLs")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "concurrent workers (default concurrency.workers)")
	batchCmd.Flags().StringVar(&batchOutDir, "out", "", "report directory (default output.dir)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "", "report format: json, markdown, both (default output.format)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "overall batch timeout")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	a, err := newApp(!batchDocs)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	concurrency := a.cfg.Concurrency
	if batchWorkers > 0 {
		concurrency.Workers = batchWorkers
	}
	outDir := orDefault(batchOutDir, a.cfg.Output.Dir)
	format := orDefault(batchFormat, a.cfg.Output.Format)

	processor := worker.NewBatchProcessor(a.pipeline, concurrency, a.logger)

	var results []*worker.BatchResult
	if batchDocs {
		docs, err := readDocumentFile(file)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Processing %d documents with %d workers\n", len(docs), concurrency.Workers)
		results = processor.ProcessDocuments(ctx, docs)
	} else {
		urls, err := worker.ReadURLsFromFile(file)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Processing %d URLs with %d workers\n", len(urls), concurrency.Workers)
		results = processor.ProcessURLs(ctx, urls)
	}

	var failed, alerts int
	for _, res := range results {
		if res.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Source, res.Error)
			continue
		}
		if err := a.writeReport(res.Report, outDir, format); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Source, err)
			continue
		}
		if res.Report.Alert.Triggered {
			alerts++
		}
		a.renderer.RenderSummary(cmd.OutOrStdout(), res.Report)
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d  Success: %d  Failures: %d  Alerts: %d  Output: %s\n",
		len(results), len(results)-failed, failed, alerts, outDir)
	return nil
}

func readDocumentFile(path string) ([]pipeline.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open documents: %w", err)
	}
	defer func() { _ = f.Close() }()

	var docs []pipeline.Document
	err = pipeline.ReadDocuments(f, func(d pipeline.Document) error {
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}
