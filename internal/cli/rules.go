package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/keywatch/internal/compiler"
	"github.com/ppiankov/keywatch/internal/ruleset"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect rule files",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate and compile a rule file",
	Long: `Check loads a rule file, reports validation problems and rules whose
keywords could not be compiled into a pattern (those fall back to literal
scanning). It exits non-zero when any rule has a problem.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRulesCheck,
}

var (
	keywordsPlatform string
	keywordsLimit    int
)

var rulesKeywordsCmd = &cobra.Command{
	Use:   "keywords [file]",
	Short: "List the keywords of high and urgent priority rules",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := rulesArg(args)
		if err != nil {
			return err
		}
		rules, err := ruleset.FileLoader{Path: path}.Load(cmd.Context())
		if err != nil {
			return err
		}
		for _, kw := range ruleset.HighPriorityKeywords(rules, keywordsPlatform, keywordsLimit) {
			fmt.Fprintln(cmd.OutOrStdout(), kw)
		}
		return nil
	},
}

func init() {
	rulesKeywordsCmd.Flags().StringVar(&keywordsPlatform, "platform", "", "only rules that apply to this platform")
	rulesKeywordsCmd.Flags().IntVar(&keywordsLimit, "limit", 50, "maximum keywords")

	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesKeywordsCmd)
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	path, err := rulesArg(args)
	if err != nil {
		return err
	}
	rules, err := ruleset.FileLoader{Path: path}.Load(cmd.Context())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	comp := compiler.New(cfg.Matching.UseRegex)

	out := cmd.OutOrStdout()
	problems := 0
	for _, rule := range rules {
		status := "ok"
		if rule.Disabled {
			status = "disabled"
		}
		if err := rule.Validate(); err != nil {
			problems++
			status = "invalid: " + err.Error()
		} else if cr := comp.Compile(rule); cr.Err != nil {
			problems++
			status = "literal fallback: " + cr.Err.Error()
		}
		fmt.Fprintf(out, "#%d %-30s %-7s %s\n", rule.ID, rule.Name, rule.Priority.Label(), status)
	}

	fmt.Fprintf(out, "\n%d rules, %d with problems\n", len(rules), problems)
	if problems > 0 {
		return fmt.Errorf("%s: %d rules with problems", path, problems)
	}
	return nil
}

// rulesArg returns the positional rule file or the --rules path
func rulesArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if p := viper.GetString("rules"); p != "" {
		return p, nil
	}
	return "", errNoRules
}
