package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/memory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories by similarity",
		Long: "Search memories by embedding similarity. Requires an embedding provider\n" +
			"(AGENT_RECALL_EMBED_PROVIDER); without one the result is always empty.",
		Args: cobra.MinimumNArgs(1),
		Run:  runSearch,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max results (default from config)")
	cmd.Flags().Float64P("max-distance", "m", 0, "Distance threshold (default from config)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	maxDistance, _ := cmd.Flags().GetFloat64("max-distance")
	query := strings.Join(args, " ")

	if limit <= 0 {
		limit = cfg.RecallLimit
	}
	if maxDistance <= 0 {
		maxDistance = cfg.MaxDistance
	}

	svc, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer svc.Close()

	results, err := svc.Search(cmd.Context(), memory.SearchParams{
		Query:       query,
		Limit:       limit,
		MaxDistance: maxDistance,
	})
	if err != nil {
		exitErr("search", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
