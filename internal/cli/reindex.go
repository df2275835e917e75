package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the vector index from the record store",
		Long: "Re-embed every memory record and rebuild its index entry. Use after\n" +
			"restoring a database, switching embedding models, or to reconcile records\n" +
			"whose indexing failed at write time.",
		Run: runReindex,
	}

	RootCmd.AddCommand(cmd)
}

func runReindex(cmd *cobra.Command, args []string) {
	svc, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer svc.Close()

	indexed, skipped, err := svc.Reindex(cmd.Context())
	if err != nil {
		exitErr("reindex", err)
	}

	fmt.Printf(`{"ok":true,"indexed":%d,"skipped":%d}`+"\n", indexed, skipped)
}
