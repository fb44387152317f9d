package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-ttstok/internal/config"
	"github.com/example/go-ttstok/internal/server"
	"github.com/example/go-ttstok/internal/tokenizer"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "ttstok",
		Short:         "Text to token ID conversion for speech-synthesis models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}

			activeCfg = loaded
			setupLogger(loaded.LogLevel)

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTokenizeCmd())
	cmd.AddCommand(newDecodeCmd())
	cmd.AddCommand(newPhonemizeCmd())
	cmd.AddCommand(newVocabCmd())
	cmd.AddCommand(newPhonemizersCmd())
	cmd.AddCommand(newDatasetCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}

	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.LogLevel == "" {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}

	return activeCfg, nil
}

// newTokenizer builds the tokenizer described by the active configuration.
func newTokenizer() (*tokenizer.Tokenizer, config.Config, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, config.Config{}, err
	}

	tc := cfg.TokenizerConfig()
	tc.Logger = slog.Default()

	tok, err := tokenizer.NewFromConfig(tc)
	if err != nil {
		return nil, config.Config{}, err
	}

	return tok, cfg, nil
}

// readInput returns text, falling back to stdin when text is blank.
func readInput(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}

	return input, nil
}
