package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/keywatch/internal/model"
)

// Version is set at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile     string
	verbose     bool
	rulesPath   string
	metricsFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "keywatch",
	Short: "keywatch - keyword rule matching for social and web content",
	Long: `keywatch matches declarative keyword rules against text.

Rules combine keywords, exclusions, platform and date filters, conditions and
alert triggers. Content is matched by compiled patterns, phrases, tokens,
stems, fuzzy similarity and synonyms; every match carries a transparent
relevance score.

Content can come from files, stdin, JSONL document streams or fetched web
pages.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command; cancelling ctx stops long running commands
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "keywatch %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.keywatch/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.StringVarP(&rulesPath, "rules", "r", "", "rule file, YAML or JSON (env KEYWATCH_RULES)")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("rules", flags.Lookup("rules"))
	_ = viper.BindPFlag("output.metrics_file", flags.Lookup("metrics-file"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := registerDefaults(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".keywatch"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// KEYWATCH_MATCHING_FUZZY_THRESHOLD overrides matching.fuzzy_threshold
	viper.SetEnvPrefix("KEYWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("sentiment.api_key", "KEYWATCH_SENTIMENT_API_KEY", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every configuration key known to viper so that
// environment variables apply to keys absent from the config file
func registerDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig merges defaults, the config file, environment and flags
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if viper.GetBool("verbose") {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
