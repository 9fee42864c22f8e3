package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-report/internal/config"
	"github.com/naka-gawa/github-report/internal/gateway"
	"github.com/naka-gawa/github-report/internal/output"
	"github.com/naka-gawa/github-report/internal/sheet"
	"github.com/naka-gawa/github-report/internal/summarizer"
	"github.com/naka-gawa/github-report/internal/usecase"
)

const reportTitle = "GitHub Repository Analysis Report"

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Builds a CSV report for every repository listed in a spreadsheet",
	Long: `Reads repository URLs from a sheet of an .xlsx workbook, fetches each
repository's metadata from the GitHub API, summarizes its README and appends
one CSV row per repository. A summary table is printed at the end.

GITHUB_TOKEN is sent as a bearer token when set. HF_TOKEN authenticates the
summarization endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := newLogger(os.Stderr, verbose)

		configPath, _ := cmd.InheritedFlags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}

		urls, err := sheet.LoadURLs(cfg.InputFile, cfg.Sheet, cfg.Column)
		if err != nil {
			logger.Error("failed to load spreadsheet", "file", cfg.InputFile, "err", err)
			return fmt.Errorf("failed to load spreadsheet: %w", err)
		}
		logger.Info("loaded repository list", "file", cfg.InputFile, "rows", len(urls))

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
			Token:         cfg.GitHubToken,
			BaseURL:       cfg.APIBaseURL,
			GraphQLURL:    cfg.GraphQLURL,
			MaxAttempts:   cfg.MaxAttempts,
			RateLimitWait: cfg.RateLimitWait,
			RetryWait:     cfg.RetryWait,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}

		var opts []usecase.BuilderOption
		if cfg.Summarizer.Enabled {
			s, err := summarizer.New(summarizer.Options{
				Endpoint:      cfg.Summarizer.Endpoint,
				Token:         cfg.Summarizer.Token,
				MinLength:     cfg.Summarizer.MinLength,
				MaxLength:     cfg.Summarizer.MaxLength,
				MaxInputRunes: cfg.Summarizer.MaxInputRunes,
				Timeout:       cfg.Summarizer.Timeout,
			}, logger)
			if err != nil {
				return fmt.Errorf("failed to create summarizer: %w", err)
			}
			opts = append(opts, usecase.WithSummarizer(s))
		}
		if cfg.ExactCounts {
			opts = append(opts, usecase.WithExactCounts(githubGateway))
		}

		builder := usecase.NewBuilder(githubGateway, cfg.HostPrefix, logger, opts...)
		table := output.NewTable(reportTitle)
		writer := output.NewCSVWriter(cfg.OutputFile)
		driver := usecase.NewDriver(builder, writer, table, logger)

		stats, runErr := driver.Run(ctx, urls)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, table.Render())
		fmt.Fprintln(out, output.Summary(stats, writer.Path()))
		if runErr != nil {
			return fmt.Errorf("run stopped early: %w", runErr)
		}
		return nil
	},
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputFile, _ = flags.GetString("input")
	}
	if flags.Changed("sheet") {
		cfg.Sheet, _ = flags.GetString("sheet")
	}
	if flags.Changed("column") {
		cfg.Column, _ = flags.GetString("column")
	}
	if flags.Changed("output") {
		cfg.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("exact-counts") {
		cfg.ExactCounts, _ = flags.GetBool("exact-counts")
	}
	if noSummary, _ := flags.GetBool("no-summary"); noSummary {
		cfg.Summarizer.Enabled = false
	}
	return cfg.Validate()
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("input", "i", "urls.xlsx", "Spreadsheet with the repository URLs")
	analyzeCmd.Flags().String("sheet", "urls", "Sheet holding the URLs")
	analyzeCmd.Flags().String("column", "url", "Header of the URL column")
	analyzeCmd.Flags().StringP("output", "o", "CSV/results.csv", "CSV file the reports are appended to")
	analyzeCmd.Flags().Bool("exact-counts", false, "Use GraphQL for exact commit and pull request totals")
	analyzeCmd.Flags().Bool("no-summary", false, "Skip README summarization")
}
