// Package cli implements the memory-stream CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/memory-stream/internal/config"
	"github.com/rcliao/memory-stream/internal/embedding"
	"github.com/rcliao/memory-stream/internal/importance"
	"github.com/rcliao/memory-stream/internal/memdb"
	"github.com/rcliao/memory-stream/internal/store"
)

var (
	configFile string
	formatFlag string
	v          = config.New()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memory-stream",
	Short: "Long-term memory store for generative agents",
	Long: "Stores short natural-language memories as vectors plus JSON metadata and " +
		"retrieves them ranked by relevance, recency and importance.",
	SilenceUsage: true,
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Config file (default: ~/.memory-stream/config.yaml)")
	flags.StringVarP(&formatFlag, "format", "f", "json", "Output format: json, yaml or text")
	flags.StringP("dir", "d", "", "Directory holding the database files (default: $MEMORY_STREAM_DIR or .)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")

	v.BindPFlag("dir", flags.Lookup("dir"))
	v.BindPFlag("log_level", flags.Lookup("log-level"))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openManager builds a Manager from configuration. The returned func
// releases the embedding cache, if any.
func openManager() (*memdb.Manager, func(), error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.LogLevel)

	emb, err := embedding.New(cfg.Embedding, cfg.Dimensions)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	if cfg.Embedding.Cache != "" {
		cache, err := store.NewEmbeddingCache(cfg.Embedding.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("open embedding cache: %w", err)
		}
		emb = embedding.NewCached(emb, cache)
		cleanup = func() { cache.Close() }
	}

	rater, err := importance.New(cfg.Rating)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	m, err := memdb.NewManager(memdb.Options{
		Dir:         cfg.Dir,
		Dimensions:  cfg.Dimensions,
		DecayRate:   &cfg.DecayRate,
		BaseResults: cfg.BaseResults,
		Weights:     &cfg.Weights,
		Embedder:    emb,
		Rater:       rater,
		Logger:      logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Debug("manager ready", "dir", cfg.Dir, "embedding", cfg.Embedding.Provider, "rating", cfg.Rating.Provider)
	return m, cleanup, nil
}

// parseNow reads --now, defaulting to the current time.
func parseNow(cmd *cobra.Command) (time.Time, error) {
	s, _ := cmd.Flags().GetString("now")
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := store.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --now: %w", err)
	}
	return t, nil
}

// printOut writes val in the selected format. text renders the text format;
// when nil, text falls back to YAML.
func printOut(val any, text func()) error {
	switch strings.ToLower(formatFlag) {
	case "text":
		if text != nil {
			text()
			return nil
		}
		fallthrough
	case "yaml", "yml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(val); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		b, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Println(string(b))
		return nil
	default:
		return fmt.Errorf("unknown format %q (valid: json, yaml, text)", formatFlag)
	}
}
