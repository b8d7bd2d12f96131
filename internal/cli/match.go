package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/pipeline"
)

var (
	matchPlatform   string
	matchEngagement float64
	matchSentiment  float64
	matchPublished  string
	matchJSON       bool
	matchTimeout    time.Duration
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match [file]",
	Short: "Match a file or stdin against the rules",
	Long: `Match reads content from a file (or stdin when no file or "-" is given)
and evaluates every enabled rule against it.

Example:
  keywatch match --rules rules.yaml post.txt
  echo "flash loan exploit drained the pool" | keywatch match -r rules.yaml --platform twitter
  keywatch match -r rules.yaml post.txt --engagement 350 --sentiment -0.6 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&matchPlatform, "platform", "", "platform the content was published on")
	matchCmd.Flags().Float64Var(&matchEngagement, "engagement", 0, "engagement score of the content")
	matchCmd.Flags().Float64Var(&matchSentiment, "sentiment", 0, "sentiment score in [-1,1] (analyzed when omitted)")
	matchCmd.Flags().StringVar(&matchPublished, "published", "", "publication time, RFC 3339 (default now)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "print the full report as JSON")
	matchCmd.Flags().DurationVar(&matchTimeout, "timeout", time.Minute, "overall timeout")
}

func runMatch(cmd *cobra.Command, args []string) error {
	source := "-"
	if len(args) == 1 {
		source = args[0]
	}
	content, err := readContent(cmd.InOrStdin(), source)
	if err != nil {
		return err
	}

	doc := pipeline.Document{
		ID:       source,
		Source:   source,
		Platform: matchPlatform,
		Content:  content,
		Metadata: model.Metadata{EngagementScore: matchEngagement},
	}
	if source == "-" {
		doc.ID, doc.Source = "stdin", "stdin"
	}
	if cmd.Flags().Changed("sentiment") {
		s := matchSentiment
		doc.Metadata.SentimentScore = &s
	}
	if matchPublished != "" {
		t, err := time.Parse(time.RFC3339, matchPublished)
		if err != nil {
			return fmt.Errorf("--published: %w", err)
		}
		doc.PublishedAt = &t
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), matchTimeout)
	defer cancel()

	report, err := a.pipeline.Analyze(ctx, doc)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if matchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	a.renderer.RenderSummary(out, report)
	return nil
}

// readContent reads a file, or stdin for "-"
func readContent(stdin io.Reader, source string) (string, error) {
	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}
