package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikeboe/osint-investigator/pkg/config"
	"github.com/mikeboe/osint-investigator/pkg/logging"
	"github.com/mikeboe/osint-investigator/pkg/report"
	"github.com/mikeboe/osint-investigator/pkg/server"
)

var (
	name       string
	city       string
	extraTerms string
	outDir     string
)

func main() {
	cfg := config.Load()

	// Setup structured logging
	slog.SetDefault(logging.New(cfg.LogLevel))

	rootCmd := &cobra.Command{
		Use:   "osint-investigator",
		Short: "Run an OSINT search about a person from the terminal",
		Long:  `osint-investigator queries several search sources for a named person, keeps the results that refer to them and prints an AI-assisted report as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("name") {
				// Interactive Mode
				reader := bufio.NewReader(os.Stdin)

				fmt.Fprint(os.Stderr, "Enter full name: ")
				input, _ := reader.ReadString('\n')
				name = strings.TrimSpace(input)

				fmt.Fprint(os.Stderr, "Enter city (optional): ")
				input, _ = reader.ReadString('\n')
				city = strings.TrimSpace(input)
			}

			req, err := server.ParseRequest(server.StartSearchRequest{Name: name, City: city, ExtraTerms: extraTerms})
			if err != nil {
				return err
			}

			pipeline, err := server.NewPipeline(cfg)
			if err != nil {
				return fmt.Errorf("configure pipeline: %w", err)
			}

			logger := slog.Default()
			engine := pipeline.Engine(logger)
			engine.OnProgress = func(pct int, stage string) {
				logger.Info("Progress", "percentage", pct, "stage", stage)
			}

			result, err := engine.Run(context.Background(), req)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if outDir != "" {
				filename, path, err := report.NewWriter(outDir).Write(result)
				if err != nil {
					return err
				}
				logger.Info("Report written", "filename", filename, "path", path)
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	rootCmd.Flags().StringVarP(&name, "name", "n", "", "Full name of the person")
	rootCmd.Flags().StringVarP(&city, "city", "c", "", "City or region")
	rootCmd.Flags().StringVarP(&extraTerms, "extra", "e", "", "Comma separated additional keywords")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", "", "Write a report file into this directory instead of printing")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
