package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	scanOutDir  string
	scanFormat  string
	scanTimeout time.Duration
	scanNoCache bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Fetch a web page and match it against the rules",
	Long: `Scan fetches a page (honoring robots.txt, rate limits and the page cache),
extracts its main text with a site adapter, and matches it against the rules.

Example:
  keywatch scan -r rules.yaml https://www.reddit.com/r/defi/comments/abc
  keywatch scan -r rules.yaml https://example.com/news --format both --out reports`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanOutDir, "out", "", "report directory (default output.dir)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "", "report format: json, markdown, both (default output.format)")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "overall scan timeout")
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "disable the page cache")
}

func runScan(cmd *cobra.Command, args []string) error {
	url := args[0]

	a, err := newAppWithCache(!scanNoCache)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", url)
	}

	report, err := a.pipeline.ScanURL(ctx, url)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if err := a.writeReport(report, orDefault(scanOutDir, a.cfg.Output.Dir), orDefault(scanFormat, a.cfg.Output.Format)); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	a.renderer.RenderSummary(cmd.OutOrStdout(), report)
	return nil
}

// newAppWithCache builds a fetching app, optionally without the page cache
func newAppWithCache(useCache bool) (*app, error) {
	if !useCache {
		viper.Set("cache.enabled", false)
	}
	return newApp(true)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
