package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/webscrambler/internal/app"
	"github.com/hyperifyio/webscrambler/internal/scramble"
	"github.com/hyperifyio/webscrambler/internal/service"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

// options carries values shared by every subcommand.
type options struct {
	cfg        app.Config
	configPath string
	envFiles   []string
	sslVerify  bool
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "webscrambler",
		Short:         "Fetch web pages and scramble their text, links or images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.resolve(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", os.Getenv("WEBSCRAMBLER_CONFIG"), "Path to a YAML, JSON or TOML config file")
	f.StringSliceVar(&o.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")
	f.BoolVarP(&o.cfg.Verbose, "verbose", "v", false, "Verbose logging")
	f.StringVar(&o.cfg.LLMProvider, "llm.provider", "", "Summary provider: openai or gemini")
	f.StringVar(&o.cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	f.StringVar(&o.cfg.LLMModel, "llm.model", "", "Model name")
	f.StringVar(&o.cfg.LLMAPIKey, "llm.key", "", "API key for the summary provider")
	f.BoolVar(&o.sslVerify, "llm.sslVerify", true, "Verify TLS certificates of the LLM endpoint")
	f.DurationVar(&o.cfg.FetchTimeout, "fetch.timeout", 0, "Page fetch timeout (default 10s)")
	f.StringVar(&o.cfg.FetchUserAgent, "fetch.ua", "", "User-Agent sent when fetching pages")
	f.IntVar(&o.cfg.FetchMaxConcurrent, "fetch.maxConcurrent", 0, "Maximum concurrent page fetches (0 means unlimited)")
	f.StringVar(&o.cfg.CacheDir, "cache.dir", "", "Summary cache directory")
	f.DurationVar(&o.cfg.CacheMaxAge, "cache.maxAge", 0, "Purge summary cache entries older than this on start; 0 disables")
	f.IntVar(&o.cfg.CacheMaxEntries, "cache.maxEntries", 0, "Keep at most this many summary cache entries; 0 disables")
	f.BoolVar(&o.cfg.CacheClear, "cache.clear", false, "Clear the summary cache on start")
	f.BoolVar(&o.cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	f.BoolVar(&o.cfg.DisableCache, "no-cache", false, "Disable the summary cache")

	root.AddCommand(
		newServeCmd(o),
		newScrambleCmd(o),
		newExtractCmd(o),
		newSummarizeCmd(o),
		newVersionCmd(),
	)
	return root
}

// resolve merges configuration with precedence flags > env > file > defaults.
func (o *options) resolve(cmd *cobra.Command) error {
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	if cmd.Flags().Changed("llm.sslVerify") {
		v := o.sslVerify
		o.cfg.LLMSSLVerify = &v
	}
	app.ApplyEnvToConfig(&o.cfg)
	if strings.TrimSpace(o.configPath) != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := app.ApplyFileConfig(&o.cfg, fc); err != nil {
			return err
		}
	}
	if o.cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return app.ValidateConfig(o.cfg)
}

func (o *options) newApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, o.cfg)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	return a, nil
}

func newServeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scramble and summary HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			a.Preflight(cmd.Context())
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&o.cfg.ListenAddr, "listen", "", "Listen address (default :8080)")
	cmd.Flags().Float64Var(&o.cfg.SummaryRPS, "summary.rps", 0, "Summary requests per second (default 1, negative disables the limit)")
	cmd.Flags().IntVar(&o.cfg.SummaryBurst, "summary.burst", 0, "Summary request burst (default 5)")
	return cmd
}

func newScrambleCmd(o *options) *cobra.Command {
	var (
		typ    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "scramble <url>",
		Short: "Fetch a page and print its original and scrambled content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			resp, err := a.Service().Scramble(cmd.Context(), service.Request{URL: args[0], ScrambleType: typ})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Original:\n%s\n\nScrambled:\n%s\n", resp.OriginalText, resp.ScrambledText)
			return err
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", string(scramble.Words), "Scramble type: "+typeList())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the response as JSON")
	return cmd
}

func newExtractCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>",
		Short: "Fetch a page and print its extracted plain text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Service().Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.OriginalText)
			return err
		},
	}
}

func newSummarizeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <url>",
		Short: "Fetch a page and print a short model-written summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			resp, err := a.Service().SummarizeURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Summary)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// Version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "webscrambler %s (commit %s, built %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
			return err
		},
	}
}

func typeList() string {
	names := make([]string, len(scramble.Types))
	for i, t := range scramble.Types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
