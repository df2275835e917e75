package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/llm"
	"github.com/rcliao/agent-recall/internal/simple"
)

func init() {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Typed memory without embeddings",
		Long: "Episodic, semantic, and procedural memory over a plain JSON store.\n" +
			"Works with no embedding provider; search is substring matching.",
	}
	notesCmd.PersistentFlags().StringP("user", "u", "default", "Memory owner")

	factCmd := &cobra.Command{
		Use:   "fact [concept] [facts]",
		Short: "Record facts about a concept",
		Args:  cobra.MinimumNArgs(2),
		Run:   runNotesFact,
	}

	procCmd := &cobra.Command{
		Use:   "proc [name] [instructions]",
		Short: "Record a procedure",
		Args:  cobra.MinimumNArgs(2),
		Run:   runNotesProc,
	}
	procCmd.Flags().Bool("update", false, "Replace an existing procedure (fails if it does not exist)")

	logCmd := &cobra.Command{
		Use:   "log [id] [content]",
		Short: "Record an interaction",
		Args:  cobra.MinimumNArgs(2),
		Run:   runNotesLog,
	}

	getCmd := &cobra.Command{
		Use:   "get [fact|proc|log] [key]",
		Short: "Look up one entry by key",
		Args:  cobra.ExactArgs(2),
		Run:   runNotesGet,
	}

	queryCmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Search all three memory types",
		Args:  cobra.MinimumNArgs(1),
		Run:   runNotesQuery,
	}

	assistCmd := &cobra.Command{
		Use:   "assist [question]",
		Short: "Answer a question using typed memory as context",
		Args:  cobra.MinimumNArgs(1),
		Run:   runNotesAssist,
	}

	notesCmd.AddCommand(factCmd, procCmd, logCmd, getCmd, queryCmd, assistCmd)
	RootCmd.AddCommand(notesCmd)
}

func openNotes(cmd *cobra.Command) *simple.Integrated {
	user, _ := cmd.Flags().GetString("user")
	mem, err := simple.NewIntegrated(user, cfg.NotesDir)
	if err != nil {
		exitErr("open notes", err)
	}
	return mem
}

func runNotesFact(cmd *cobra.Command, args []string) {
	mem := openNotes(cmd)
	concept := args[0]
	facts := strings.Join(args[1:], " ")

	if err := mem.LearnFact(concept, facts); err != nil {
		exitErr("notes fact", err)
	}
	fmt.Printf(`{"ok":true,"concept":%q}`+"\n", concept)
}

func runNotesProc(cmd *cobra.Command, args []string) {
	update, _ := cmd.Flags().GetBool("update")
	mem := openNotes(cmd)
	name := args[0]
	instructions := strings.Join(args[1:], " ")

	var err error
	if update {
		err = mem.UpdateProcedure(name, instructions)
	} else {
		err = mem.LearnProcedure(name, instructions)
	}
	if err != nil {
		exitErr("notes proc", err)
	}
	fmt.Printf(`{"ok":true,"procedure":%q}`+"\n", name)
}

func runNotesLog(cmd *cobra.Command, args []string) {
	mem := openNotes(cmd)
	id := args[0]
	content := strings.Join(args[1:], " ")

	if err := mem.RememberInteraction(id, content); err != nil {
		exitErr("notes log", err)
	}
	fmt.Printf(`{"ok":true,"interaction":%q}`+"\n", id)
}

func runNotesGet(cmd *cobra.Command, args []string) {
	mem := openNotes(cmd)
	kind, key := args[0], args[1]

	var (
		value any
		err   error
	)
	switch kind {
	case "fact":
		value, err = mem.Semantic.Knowledge(key)
	case "proc":
		value, err = mem.Procedural.Procedure(key)
	case "log":
		value, err = mem.Episodic.Interaction(key)
	default:
		exitErr("notes get", fmt.Errorf("unknown kind %q (want fact, proc, or log)", kind))
	}
	if err != nil {
		exitErr("notes get", err)
	}

	b, _ := json.MarshalIndent(value, "", "  ")
	fmt.Println(string(b))
}

func runNotesQuery(cmd *cobra.Command, args []string) {
	mem := openNotes(cmd)
	results := mem.QueryMemory(strings.Join(args, " "))

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}

func runNotesAssist(cmd *cobra.Command, args []string) {
	mem := openNotes(cmd)
	question := strings.Join(args, " ")

	gen, err := llm.NewFromEnv()
	if err != nil {
		exitErr("open generator", err)
	}

	assistant := simple.NewAssistant(mem, gen, nil)
	reply, err := assistant.Answer(cmd.Context(), question)
	if err != nil {
		exitErr("notes assist", err)
	}
	fmt.Println(reply)
}
