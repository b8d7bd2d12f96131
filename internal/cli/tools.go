package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/keywatch/internal/extract"
	"github.com/ppiankov/keywatch/internal/fuzzy"
)

// similarityCmd represents the similarity command
var similarityCmd = &cobra.Command{
	Use:   "similarity <a> <b>",
	Short: "Compare two strings with every similarity measure",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a, b := args[0], args[1]
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "levenshtein distance:   %d\n", fuzzy.Levenshtein(a, b))
		fmt.Fprintf(out, "levenshtein similarity: %.4f\n", fuzzy.LevenshteinSimilarity(a, b))
		fmt.Fprintf(out, "jaro:                   %.4f\n", fuzzy.Jaro(a, b))
		fmt.Fprintf(out, "jaro-winkler:           %.4f\n", fuzzy.JaroWinkler(a, b))
	},
}

var (
	routeFile     string
	routeLinkText string
	routeMinScore float64
)

// routeCmd represents the route command
var routeCmd = &cobra.Command{
	Use:   "route <path>",
	Short: "Find the named route that best matches a URL path",
	Long: `Route scores every route in a YAML list against a URL path:

  - name: user.profile
    uri: /user/profile

Example:
  keywatch route /user-profile/edit --routes routes.yaml --link-text "Edit profile"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(routeFile)
		if err != nil {
			return fmt.Errorf("read routes: %w", err)
		}
		var routes []fuzzy.Route
		if err := yaml.Unmarshal(data, &routes); err != nil {
			return fmt.Errorf("parse routes: %w", err)
		}

		best, ok := fuzzy.FindBestRoute(args[0], routes, routeLinkText, routeMinScore)
		if !ok {
			return fmt.Errorf("no route scored at least %.2f for %s", routeMinScore, args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%.4f)\n", best.Name, best.URI, best.Score)
		return nil
	},
}

var suggestLimit int

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest [file]",
	Short: "Suggest keywords from the most frequent words of a text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := "-"
		if len(args) == 1 {
			source = args[0]
		}
		content, err := readContent(cmd.InOrStdin(), source)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(extract.SuggestKeywords(content, suggestLimit), "\n"))
		return nil
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeFile, "routes", "routes.yaml", "YAML list of routes")
	routeCmd.Flags().StringVar(&routeLinkText, "link-text", "", "text of the link pointing at the path")
	routeCmd.Flags().Float64Var(&routeMinScore, "min-score", 0.5, "minimum similarity")

	suggestCmd.Flags().IntVar(&suggestLimit, "limit", extract.DefaultSuggestLimit, "maximum keywords")

	rootCmd.AddCommand(similarityCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(suggestCmd)
}
