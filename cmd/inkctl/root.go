package main

import (
	"context"
	"fmt"
	"os"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/pkg/client"
	"github.com/anonto42/inkwell/backend/pkg/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultAPI = "http://localhost:8080"

var (
	apiURL      string
	sessionPath string
	verbose     bool
	outputJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "inkctl",
	Short: "Inkwell command line client",
	Long: `inkctl signs in to an Inkwell API and lets you list, watch and
manage your notifications from the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.InitializeConsole(level)
		return loadSettings()
	},
}

// loadSettings resolves api and session from flags, then INKWELL_* env,
// then defaults.
func loadSettings() error {
	apiURL = viper.GetString("api")
	sessionPath = viper.GetString("session")
	if sessionPath == "" {
		path, err := session.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve session path: %w", err)
		}
		sessionPath = path
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("api", defaultAPI, "API base URL (env INKWELL_API)")
	flags.String("session", "", "Session file, default <user config dir>/inkwell/session.json (env INKWELL_SESSION)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&outputJSON, "json", false, "Print JSON instead of text")

	viper.SetEnvPrefix("INKWELL")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("api", flags.Lookup("api"))
	_ = viper.BindPFlag("session", flags.Lookup("session"))
	viper.SetDefault("api", defaultAPI)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(notificationsCmd)
}

// signedIn builds an API client backed by the stored session, refreshing
// it when needed.
func signedIn(ctx context.Context) (*client.Client, *session.Manager, error) {
	api := client.New(apiURL)
	manager := session.NewManager(session.FileStore{Path: sessionPath}, api)
	manager.Start(ctx)
	if manager.Current() == nil {
		return nil, nil, fmt.Errorf("not signed in, run: inkctl login")
	}
	return client.New(apiURL, client.WithTokenSource(manager)), manager, nil
}
