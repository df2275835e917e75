package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/model"
)

func init() {
	convCmd := &cobra.Command{
		Use:   "conv",
		Short: "Manage conversations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recently updated first",
		Run:   runConvList,
	}
	listCmd.Flags().IntP("limit", "l", 20, "Max results")

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a conversation and its messages",
		Args:  cobra.ExactArgs(1),
		Run:   runConvShow,
	}

	rmCmd := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a conversation and its messages",
		Args:  cobra.ExactArgs(1),
		Run:   runConvRm,
	}

	convCmd.AddCommand(listCmd, showCmd, rmCmd)
	RootCmd.AddCommand(convCmd)
}

func runConvList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	svc, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer svc.Close()

	convs, err := svc.Conversations(cmd.Context(), limit)
	if err != nil {
		exitErr("conv list", err)
	}

	if len(convs) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(convs, "", "  ")
	fmt.Println(string(b))
}

func runConvShow(cmd *cobra.Command, args []string) {
	svc, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer svc.Close()

	conv, msgs, err := svc.Conversation(cmd.Context(), args[0])
	if err != nil {
		exitErr("conv show", err)
	}

	out := struct {
		Conversation *model.Conversation `json:"conversation"`
		Messages     []model.Message     `json:"messages"`
	}{conv, msgs}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func runConvRm(cmd *cobra.Command, args []string) {
	svc, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer svc.Close()

	if err := svc.DeleteConversation(cmd.Context(), args[0]); err != nil {
		exitErr("conv rm", err)
	}

	fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
}
