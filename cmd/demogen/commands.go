package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/demogen/internal/analysis"
	"github.com/MrSnakeDoc/demogen/internal/app"
	"github.com/MrSnakeDoc/demogen/internal/config"
	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/logger"
	"github.com/MrSnakeDoc/demogen/internal/placement"
	"github.com/MrSnakeDoc/demogen/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := app.New(cmd.Context())
	if err != nil {
		return err
	}
	return a.Run(cmd.Context())
}

var (
	suggestStrategy string
	suggestAI       bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <url>",
	Short: "Clone a page and print placement suggestions as JSON",
	Long: `Fetches the page the same way the server does, then prints the
placement suggestion and the detected design tokens. Nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestStrategy, "strategy", "", "placement strategy (defaults to DEMOGEN_PLACEMENT_STRATEGY)")
	suggestCmd.Flags().BoolVar(&suggestAI, "ai", false, "ask the llm advisor before the heuristic")
}

type suggestOutput struct {
	URL        string               `json:"url"`
	Rendered   bool                 `json:"rendered"`
	Suggestion placement.Suggestion `json:"suggestion"`
	Tokens     analysis.Tokens      `json:"tokens"`
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.LoadOffline()
	if suggestStrategy != "" {
		cfg.PlacementStrategy = suggestStrategy
	}
	if cmd.Flags().Changed("ai") {
		cfg.AIPlacementEnabled = suggestAI
	}

	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	client, err := app.NewLLM(ctx, cfg, log)
	if err != nil {
		return err
	}
	suggester, err := app.NewSuggester(cfg, client, log)
	if err != nil {
		return err
	}
	cloner := app.NewCloner(ctx, cfg, client, log)
	defer func() { _ = cloner.Close() }()

	c, err := cloner.Build(ctx, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(suggestOutput{
		URL:        c.SourceURL,
		Rendered:   c.Rendered,
		Suggestion: suggester.Suggest(ctx, c.HTML),
		Tokens:     analysis.Analyze(c.HTML),
	})
}

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "WordPress plugin configuration tools",
}

var pluginValidateCmd = &cobra.Command{
	Use:   "validate <config.json>",
	Short: "Validate a plugin configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var cfg domain.WordpressPluginConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("%s: invalid JSON: %w", args[0], err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (%s)\n", args[0], cfg.ReleaseTag())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
