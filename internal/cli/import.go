package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import memories from JSON",
		Long: "Import memory records from stdin in the format produced by export.\n" +
			"Ids and timestamps are preserved; records whose id already exists are\n" +
			"skipped. Imported records are reindexed when embeddings are enabled.",
		Run: runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var memories []model.MemoryRecord
	if err := json.Unmarshal(data, &memories); err != nil {
		exitErr("parse json", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	imported, err := s.ImportMemories(cmd.Context(), memories)
	s.Close()
	if err != nil {
		exitErr("import", err)
	}

	svc, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer svc.Close()

	indexed, _, err := svc.Reindex(cmd.Context())
	if err != nil && errs.CodeOf(err) != errs.Config {
		exitErr("reindex after import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d,"indexed":%d}`+"\n", imported, indexed)
}
