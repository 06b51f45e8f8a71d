package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/peejay-git/stallions/internal/engine"
	"github.com/peejay-git/stallions/internal/idgen"
	"github.com/peejay-git/stallions/internal/ledger"
	"github.com/peejay-git/stallions/internal/models"
	"github.com/peejay-git/stallions/internal/output"
	"github.com/peejay-git/stallions/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose     bool
	dryRun      bool
	asPrincipal string
)

var rootCmd = &cobra.Command{
	Use:   "stallions",
	Short: "Stallions - a bounty marketplace for paid tasks",
	Long: `stallions runs a two-sided bounty marketplace: owners post paid
tasks with an escrowed reward, applicants submit work, and owners accept
(paying the reward) or reject. State lives in a local SQLite database.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().StringVar(&asPrincipal, "as", "", "Acting principal (default: config 'principal')")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/stallions/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "stallions")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STALLIONS")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "stallions")

	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "stallions.db"))
	viper.SetDefault("principal", "")
	viper.SetDefault("default_asset", "XLM")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// The store opens lazily so config/version commands run without a db.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getEngine builds the lifecycle engine with its collaborators: the shared
// store, the real clock, random IDs, and the local ledger for payouts.
func getEngine() (*engine.Engine, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	return engine.New(s, engine.RealClock(), idgen.New(), ledger.New(s)), nil
}

// getLedger returns the local asset ledger over the shared store.
func getLedger() (*ledger.Ledger, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	return ledger.New(s), nil
}

// callerPrincipal resolves the acting principal from --as or config.
func callerPrincipal() (models.Principal, error) {
	if asPrincipal != "" {
		return models.Principal(asPrincipal), nil
	}
	if p := viper.GetString("principal"); p != "" {
		return models.Principal(p), nil
	}
	return "", fmt.Errorf("no acting principal: pass --as <principal> or set 'principal' in config")
}
