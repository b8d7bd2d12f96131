package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/ppiankov/keywatch/internal/cache"
	"github.com/ppiankov/keywatch/internal/compiler"
	"github.com/ppiankov/keywatch/internal/logging"
	"github.com/ppiankov/keywatch/internal/matcher"
	"github.com/ppiankov/keywatch/internal/model"
	"github.com/ppiankov/keywatch/internal/pipeline"
	"github.com/ppiankov/keywatch/internal/ruleset"
	"github.com/ppiankov/keywatch/internal/sentiment"
	"github.com/ppiankov/keywatch/internal/telemetry"
	"github.com/ppiankov/keywatch/internal/util"
	"github.com/ppiankov/keywatch/internal/worker"
)

var errNoRules = errors.New("no rule file: set --rules or KEYWATCH_RULES")

// app wires the engine for one command invocation
type app struct {
	cfg       model.Config
	logger    logging.Logger
	metrics   *telemetry.Metrics
	rulesPath string
	store     *ruleset.Store
	pipeline  *pipeline.Pipeline
	renderer  *pipeline.Renderer
}

// newApp loads configuration and builds the rule store and pipeline.
// withFetcher enables URL scanning.
func newApp(withFetcher bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	path := viper.GetString("rules")
	if path == "" {
		return nil, errNoRules
	}

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, OutputPaths: cfg.Logging.OutputPaths})
	if err != nil {
		return nil, err
	}
	metrics := telemetry.New()

	comp := compiler.New(cfg.Matching.UseRegex, compiler.WithLogger(logger), compiler.WithMetrics(metrics))
	store := ruleset.NewStore(ruleset.FileLoader{Path: path}, comp,
		ruleset.WithTTL(cfg.Cache.RuleTTL),
		ruleset.WithLogger(logger),
		ruleset.WithMetrics(metrics))

	m := matcher.New(cfg.Matching, cfg.Scoring, matcher.WithLogger(logger), matcher.WithMetrics(metrics))

	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithMetrics(metrics)}

	analyzer, err := sentiment.New(cfg.Sentiment, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy)
	if err != nil {
		logger.Warn("sentiment analysis disabled", logging.Error(err))
	} else if analyzer != nil {
		opts = append(opts, pipeline.WithSentiment(analyzer))
	}

	if withFetcher {
		opts = append(opts, pipeline.WithFetcher(newFetcher(cfg, logger)))
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		rulesPath: path,
		store:     store,
		pipeline:  pipeline.New(store, m, opts...),
		renderer:  pipeline.NewRenderer(20),
	}, nil
}

func newFetcher(cfg model.Config, logger logging.Logger) *pipeline.Fetcher {
	fetchOpts := []pipeline.FetcherOption{pipeline.WithFetchLogger(logger)}
	if c := cache.New(cfg.Cache); c != nil {
		fetchOpts = append(fetchOpts, pipeline.WithCache(c, cfg.Cache.TTL))
	}
	if cfg.HTTP.RespectRobots {
		fetchOpts = append(fetchOpts, pipeline.WithRobots(
			util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy)))
	}
	if l := worker.LimiterFromConfig(cfg.RateLimiting); l != nil {
		fetchOpts = append(fetchOpts, pipeline.WithRateLimiter(l))
	}
	return pipeline.NewFetcher(cfg.HTTP, fetchOpts...)
}

// close flushes the logger and writes the metrics textfile when asked
func (a *app) close() {
	path := viper.GetString("output.metrics_file")
	if path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	_ = a.logger.Sync()
}

// writeReport renders report into the configured output directory
func (a *app) writeReport(report *model.Report, dir, format string) error {
	jsonPath, mdPath := pipeline.ReportPaths(dir, format, report)
	if err := a.renderer.RenderReport(report, jsonPath, mdPath); err != nil {
		return err
	}
	if verbose {
		for _, p := range []string{jsonPath, mdPath} {
			if p != "" {
				fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", p)
			}
		}
	}
	return nil
}
