package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/pipeline"
	"github.com/ppiankov/keywatch/internal/ruleset"
)

var (
	streamWatch      bool
	streamAlertsOnly bool
)

// streamCmd represents the stream command
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Match a JSONL document stream from stdin",
	Long: `Stream reads one JSON document per line from stdin and writes one JSON
report per line to stdout, in input order. With --watch the rule file is
watched and edits take effect without restarting.

Example:
  tail -f posts.jsonl | keywatch stream -r rules.yaml --watch --alerts-only`,
	Args: cobra.NoArgs,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().BoolVar(&streamWatch, "watch", false, "reload rules when the rule file changes")
	streamCmd.Flags().BoolVar(&streamAlertsOnly, "alerts-only", false, "only print reports that triggered an alert")
}

func runStream(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	// fail fast on a broken rule file before reading input
	if _, err := a.store.Rules(ctx); err != nil {
		return err
	}

	if streamWatch {
		w := ruleset.NewWatcher(a.rulesPath, a.store, ruleset.WithWatchLogger(a.logger))
		go func() {
			if err := w.Run(ctx); err != nil {
				a.logger.Error("rule watcher stopped", logging.Error(err))
			}
		}()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	processed, failed := 0, 0
	err = pipeline.ReadDocuments(cmd.InOrStdin(), func(doc pipeline.Document) error {
		if err := ctx.Err(); err != nil {
			return pipeline.ErrStop
		}
		processed++

		report, err := a.pipeline.Analyze(ctx, doc)
		if err != nil {
			failed++
			a.logger.Warn("document failed", logging.String("id", doc.ID), logging.Error(err))
			if errors.Is(err, ruleset.ErrNoRules) {
				return err
			}
			return nil
		}
		if streamAlertsOnly && !report.Alert.Triggered {
			return nil
		}
		return enc.Encode(report)
	})
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Processed %d documents, %d failed\n", processed, failed)
	}
	return nil
}
