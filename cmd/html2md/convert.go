package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/html2md/internal/backend"
	"github.com/pdiddy/html2md/internal/convert"
	"github.com/pdiddy/html2md/internal/httputil"
	"github.com/pdiddy/html2md/internal/ledger"
	"github.com/pdiddy/html2md/internal/resolve"
	"github.com/pdiddy/html2md/internal/secrets"
	"github.com/pdiddy/html2md/pkg/types"
)

const (
	defaultOutputDir = "output"
	defaultTimeout   = 5 * time.Minute
)

func init() {
	f := rootCmd.Flags()
	f.BoolP("recursive", "r", false, "process directories recursively")
	f.StringP("output", "o", defaultOutputDir, "output directory")
	f.String("backend", string(types.BackendOpenAI), "conversion backend: openai, claude, local, or markitdown")
	f.String("model", "", "model identifier (default gpt-4o-mini for openai, claude-sonnet-4-5-20250929 for claude)")
	f.Int("max-tokens", 16384, "maximum tokens in each model response")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout per API call")
	f.Int("workers", 1, "number of files converted at once")
	f.Bool("skip-existing", false, "leave files whose Markdown output already exists")
	f.String("report", "", "write a YAML run report to this path")
	f.String("ledger", "", "record the run in a SQLite ledger (use --ledger=path; bare --ledger uses .html2md/ledger.db)")
	f.Lookup("ledger").NoOptDefVal = ledger.DefaultPath

	for key, flag := range map[string]string{
		"output":     "output",
		"backend":    "backend",
		"model":      "model",
		"max_tokens": "max-tokens",
		"timeout":    "timeout",
		"workers":    "workers",
		"ledger":     "ledger",
	} {
		if err := viper.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	input := args[0]
	cfg := conversionConfig(cmd)

	resolve.Notify = cmd.ErrOrStderr()
	jobs, err := resolve.Jobs(input, cfg.OutputDir, cfg.Recursive)
	if errors.Is(err, resolve.ErrInvalidInputPath) {
		fmt.Fprintf(out, "Error: %s is not a valid file or directory\n", input)
		return nil
	}
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintf(out, "No .html files found in %s\n", input)
		return nil
	}

	httputil.Notify = cmd.ErrOrStderr()
	b, err := backend.New(ctx, cfg.AIConfig, backend.Options{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		return err
	}

	run := types.Run{
		ID:        uuid.NewString(),
		Input:     input,
		OutputDir: cfg.OutputDir,
		Recursive: cfg.Recursive,
		Backend:   types.BackendKind(b.Name()),
		Model:     cfg.Model,
		StartedAt: time.Now().UTC(),
	}

	opts := convert.Options{
		Workers:      cfg.Workers,
		SkipExisting: cfg.SkipExisting,
	}

	var store *ledger.Store
	if path := viper.GetString("ledger"); path != "" {
		store, err = ledger.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.StartRun(ctx, run); err != nil {
			return err
		}
		opts.Recorder = convert.RecorderFunc(func(ctx context.Context, r types.JobResult) error {
			return store.RecordJob(context.WithoutCancel(ctx), run.ID, r)
		})
	}

	batch := convert.ConvertBatch(ctx, b, jobs, opts, out)
	run.FinishedAt = time.Now().UTC()

	if store != nil {
		if err := store.FinishRun(context.Background(), run, batch.Converted, batch.Unchanged, batch.Failed); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if err := convert.WriteReport(reportPath, convert.NewReport(run, batch)); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: writing report: %v\n", err)
		} else {
			fmt.Fprintf(out, "Report written to %s\n", reportPath)
		}
	}

	return nil
}

// conversionConfig merges flags, config file, environment, and secrets.
func conversionConfig(cmd *cobra.Command) types.ConversionConfig {
	recursive, _ := cmd.Flags().GetBool("recursive")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")

	kind := types.BackendKind(viper.GetString("backend"))
	outputDir := viper.GetString("output")
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	return types.ConversionConfig{
		AIConfig: types.AIConfig{
			Backend:   kind,
			Model:     viper.GetString("model"),
			APIKey:    apiKey(kind),
			BaseURL:   viper.GetString("base_url"),
			MaxTokens: viper.GetInt("max_tokens"),
		},
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: "html2md/" + version,
		},
		Recursive:    recursive,
		OutputDir:    outputDir,
		Workers:      viper.GetInt("workers"),
		SkipExisting: skipExisting,
	}
}

// apiKey resolves the credential for kind from config, environment, or .secrets/.
func apiKey(kind types.BackendKind) string {
	explicit := viper.GetString("api_key")
	switch kind {
	case types.BackendClaude:
		return secrets.Lookup(explicit, secrets.AnthropicKeyEnv, secrets.AnthropicKeyFile, loadedSecrets)
	case types.BackendOpenAI, "":
		return secrets.Lookup(explicit, secrets.OpenAIKeyEnv, secrets.OpenAIKeyFile, loadedSecrets)
	default:
		return ""
	}
}
