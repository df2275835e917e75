// Package cli implements the agent-recall CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/agent"
	"github.com/rcliao/agent-recall/internal/config"
	"github.com/rcliao/agent-recall/internal/embedding"
	"github.com/rcliao/agent-recall/internal/index"
	"github.com/rcliao/agent-recall/internal/llm"
	"github.com/rcliao/agent-recall/internal/memory"
	"github.com/rcliao/agent-recall/internal/reflection"
	"github.com/rcliao/agent-recall/internal/store"
)

var (
	cfg       config.Config
	dbFlag    string
	indexFlag string
	notesFlag string
	verbose   bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-recall",
	Short: "Agent memory with semantic recall and reflection",
	Long: "Long-term memory for AI agents: a SQLite record store paired with a\n" +
		"vector index for semantic recall, plus a reflection pipeline that turns\n" +
		"retrieved memories into insights injected into each conversation turn.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		cfg, err = config.Load()
		if err != nil {
			exitErr("load config", err)
		}
		// Flags beat environment; environment beats home-dir defaults.
		if dbFlag != "" {
			cfg.DBPath = dbFlag
		}
		if indexFlag != "" {
			cfg.IndexDir = indexFlag
		}
		if notesFlag != "" {
			cfg.NotesDir = notesFlag
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", "", "Database path (default: $AGENT_RECALL_DB or ~/.agent-recall/memory.db)")
	RootCmd.PersistentFlags().StringVar(&indexFlag, "index", "", "Vector index directory (default: $AGENT_RECALL_INDEX or ~/.agent-recall/index)")
	RootCmd.PersistentFlags().StringVar(&notesFlag, "notes-dir", "", "Typed notes directory (default: $AGENT_RECALL_NOTES_DIR or ~/.agent-recall/notes)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DBPath)
}

// openService wires the record store, vector index, and whichever
// embedding provider the environment selects. A missing embedding
// provider is fine: writes persist, similarity search returns nothing.
func openService() (*memory.Service, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	ix, err := index.NewChromemIndex(cfg.IndexDir, cfg.IndexCompress)
	if err != nil {
		st.Close()
		return nil, err
	}
	return memory.NewService(st, ix, embedding.NewFromEnv(), memory.Options{}), nil
}

// openAgent builds the full turn pipeline on top of openService.
func openAgent() (*agent.Agent, *memory.Service, error) {
	svc, err := openService()
	if err != nil {
		return nil, nil, err
	}
	gen, err := llm.NewFromEnv()
	if err != nil {
		svc.Close()
		return nil, nil, err
	}
	pipe := reflection.NewPipeline(gen, reflection.Options{Timeout: cfg.GenerateTimeout})
	a := agent.New(svc, gen, pipe, agent.Options{
		SearchLimit:     cfg.RecallLimit,
		MaxDistance:     cfg.MaxDistance,
		GenerateTimeout: cfg.GenerateTimeout,
	})
	return a, svc, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
