package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/index"
	"github.com/rcliao/agent-recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory store statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), cfg.DBPath)
	if err != nil {
		exitErr("stats", err)
	}

	out := struct {
		*store.Stats
		IndexEntries int `json:"index_entries"`
	}{Stats: stats}

	if ix, err := index.NewChromemIndex(cfg.IndexDir, cfg.IndexCompress); err == nil {
		out.IndexEntries = ix.Count()
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
