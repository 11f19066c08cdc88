package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/airtabler/airtable"
	"github.com/s0up4200/airtabler/config"
	"github.com/s0up4200/airtabler/filter"
)

var (
	cfgFile   string
	cfg       *config.Config
	logger    zerolog.Logger
	client    airtable.API
	filters   *filter.Manager
	tableName string
	dryRun    bool

	// newClient builds the API client; replaced in tests
	newClient = func(cfg *config.Config, logger zerolog.Logger) (airtable.API, error) {
		return airtable.NewClient(cfg.Airtable.BaseID, cfg.Airtable.APIKey, logger,
			airtable.WithBaseURL(cfg.Airtable.URL),
			airtable.WithTimeout(cfg.Airtable.Timeout),
			airtable.WithConcurrency(cfg.Airtable.Concurrency),
			airtable.WithUserAgent("airtabler/"+version),
		)
	}
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "airtabler",
	Short: "Read and write Airtable records from the command line",
	Long: `airtabler is a CLI for the Airtable REST API. It lists, fetches, creates,
updates and deletes records in a base, with client-side filter expressions
on top of the service's own formulas.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "perform a dry run without making changes")
	rootCmd.PersistentFlags().StringVarP(&tableName, "table", "t", "", "table name or ID (default is airtable.default_table)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration and builds the client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	// Override dry-run from command line if specified
	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}

	client, err = newClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create Airtable client: %w", err)
	}

	compiler := filter.NewExprCompiler(
		filter.WithCache(100),
		filter.WithCustomFunctions(map[string]any{
			"table": func() string { return cfg.Table(tableName) },
			"base":  func() string { return cfg.Airtable.BaseID },
		}),
	)
	filters = filter.NewManager(filter.WithCompiler(compiler))
	presets := make(map[string]string, len(cfg.Filter.Presets))
	for name, preset := range cfg.Filter.Presets {
		presets[name] = preset.Expression
	}
	if err := filters.RegisterFilters(presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// resolveTable returns the --table flag or the configured default
func resolveTable() (string, error) {
	table := cfg.Table(tableName)
	if table == "" {
		return "", fmt.Errorf("no table specified: use --table or set airtable.default_table")
	}
	return table, nil
}
