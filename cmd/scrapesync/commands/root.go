package commands

import (
	"fmt"
	"log/slog"
	"scrapesync-backend/lib/serviceutil"
	libtelemetry "scrapesync-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dbOverride string
	verbose    bool
	httpDump   string

	retrieve        bool
	updateUsers     bool
	updateAddresses bool
	updateCards     bool
)

// cfg is loaded before any command runs.
var cfg Config

var rootCmd = &cobra.Command{
	Use:          "scrapesync",
	Short:        "scrapesync keeps users, addresses and credit cards scraped from remote sources in sync with a database.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		libtelemetry.InitSlog(verbose)

		// the default config is searched for from the working directory up
		loaded, err := loadConfig(configPath, !cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if dbOverride != "" {
			loaded.Database.Url = dbOverride
		}
		cfg = loaded
		return nil
	},
	RunE: runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Path to the configuration file.")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "Database to use instead of the configured one.")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging.")
	rootCmd.PersistentFlags().StringVar(&httpDump, "http-dump", "", "Write every HTTP exchange with the sources into this directory.")

	rootCmd.Flags().BoolVarP(&retrieve, "retrieve", "r", false, "Retrieve all data entries.")
	rootCmd.Flags().BoolVar(&updateUsers, "update-users", false, "Update users database with info from API.")
	rootCmd.Flags().BoolVar(&updateAddresses, "update-addresses", false, "Update addresses database with info from API.")
	rootCmd.Flags().BoolVar(&updateCards, "update-cards", false, "Update credit cards database with info from API.")
}

func runRoot(cmd *cobra.Command, args []string) error {
	if !retrieve && !updateUsers && !updateAddresses && !updateCards {
		return cmd.Help()
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if retrieve {
		snapshot, err := a.store.Snapshot(ctx)
		if err != nil {
			return err
		}
		printSnapshot(out, snapshot)
	}

	if !updateUsers && !updateAddresses && !updateCards {
		return nil
	}
	syncer, err := a.newSyncer(cfg)
	if err != nil {
		return err
	}

	if updateUsers {
		report, err := syncer.SyncUsers(ctx)
		slog.Debug("users synced", "report", report.String())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "User info updated. Call -r to see updated data")
	}
	if updateCards {
		report, err := syncer.SyncCreditCards(ctx)
		slog.Debug("credit cards synced", "report", report.String())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Credit info updated. Call -r to see updated data")
	}
	if updateAddresses {
		report, err := syncer.SyncAddresses(ctx)
		slog.Debug("addresses synced", "report", report.String())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Addresses info updated. Call -r to see updated data")
	}
	return nil
}

func Execute() {
	ctx := serviceutil.SignalContext()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		serviceutil.Fatal("scrapesync failed", err)
	}
}
