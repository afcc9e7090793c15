package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "grbpwr-catalog",
		Short: "Catalog search and faceted filter service",
		RunE:  run,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the grbpwr-catalog service version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token for the filter definition api",
		RunE:  token,
	}

	cfgFile      string
	version      string
	tokenSubject string
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to configuration file (optional)")
	tokenCmd.Flags().StringVarP(&tokenSubject, "subject", "s", "admin", "token subject")
	rootCmd.AddCommand(versionCmd, tokenCmd)
	if err := rootCmd.Execute(); err != nil {
		slog.Default().Error("can't start the service", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
