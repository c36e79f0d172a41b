// shipdeck is a terminal client for a bulk shipping backend: upload a
// spreadsheet of shipments, review and fix records, pick services and
// purchase labels against a prepaid balance.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shipdeck/internal/api"
	"shipdeck/internal/auth"
	"shipdeck/internal/batch"
	"shipdeck/internal/config"
	"shipdeck/internal/logging"
)

var (
	// Global flags
	flagConfig  string
	flagAPIURL  string
	flagVerbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shipdeck",
	Short: "Bulk shipping label purchase from your terminal",
	Long: `shipdeck drives a bulk shipping account end to end:

  1. Upload a CSV of shipment records
  2. Review and fix what the server flagged
  3. Choose shipping services
  4. Purchase labels against your prepaid balance

Run 'shipdeck ship' for the interactive wizard, or use the subcommands
for scripted workflows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagAPIURL != "" {
			cfg.API.BaseURL = flagAPIURL
		}

		level := cfg.Logging.Level
		if flagVerbose {
			level = "debug"
		}
		logFile := cfg.Logging.File
		if cmd.Name() == "ship" && logFile == "" {
			// The wizard owns the terminal; keep log noise out of it.
			if home, err := os.UserHomeDir(); err == nil {
				logFile = filepath.Join(home, ".shipdeck", "shipdeck.log")
				_ = os.MkdirAll(filepath.Dir(logFile), 0o755)
			}
		}
		logger, err = logging.New(level, logFile)
		if err != nil {
			return err
		}

		loadedCfg = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadedCfg is resolved once in PersistentPreRunE.
var loadedCfg *config.Config

// app bundles the wired client-side components each command needs.
type app struct {
	cfg     *config.Config
	creds   *auth.CredentialStore
	client  *api.Client
	session *auth.Session
	store   *batch.Store
}

func newApp() (*app, error) {
	credPath, err := auth.DefaultCredentialPath()
	if err != nil {
		return nil, fmt.Errorf("resolve credential path: %w", err)
	}
	creds := auth.NewCredentialStore(credPath)
	client := api.New(loadedCfg.API.BaseURL, loadedCfg.APITimeout(), creds, logger)
	return &app{
		cfg:     loadedCfg,
		creds:   creds,
		client:  client,
		session: auth.NewSession(client, creds, logger),
		store:   batch.NewStore(client, logger),
	}, nil
}

// requireSession restores and validates the stored session, failing with a
// login hint when there is none.
func (a *app) requireSession(cmd *cobra.Command) error {
	if err := a.session.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("%s", api.Message(err))
	}
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("not logged in; run 'shipdeck login' first")
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shipdeck version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("shipdeck v0.4.1")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.shipdeck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(uploadCmd, batchesCmd, ratesCmd)
	rootCmd.AddCommand(shipCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
