package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/agent"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with memory",
		Long: "Interactive chat session. Every turn searches memory, reflects on what\n" +
			"was retrieved, and writes the exchange back as new memories.\n" +
			"Type 'quit' to exit.",
		Run: runChat,
	}

	cmd.Flags().StringP("conversation", "c", "", "Resume an existing conversation by id")
	cmd.Flags().String("title", "", "Title for a new conversation")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	convID, _ := cmd.Flags().GetString("conversation")
	title, _ := cmd.Flags().GetString("title")

	a, svc, err := openAgent()
	if err != nil {
		exitErr("open agent", err)
	}
	defer svc.Close()

	ctx := cmd.Context()

	var sess *agent.Session
	if convID != "" {
		sess, err = a.ResumeSession(ctx, convID)
	} else {
		sess, err = a.StartSession(ctx, title)
	}
	if err != nil {
		exitErr("start session", err)
	}

	fmt.Printf("Conversation %s. Type 'quit' to exit.\n", sess.Conversation().ID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := scanner.Text()
		if strings.ToLower(input) == "quit" {
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		res, err := a.Turn(ctx, sess, input)
		if err != nil {
			exitErr("chat", err)
		}
		if res.MemoriesRetrieved > 0 {
			fmt.Printf("Retrieved %d memories for query: '%s'\n", res.MemoriesRetrieved, input)
		}
		fmt.Printf("Assistant: %s\n", res.Reply)
		if res.InsightsApplied {
			fmt.Printf("Insights applied: %s\n", res.Insights)
		}
	}

	fmt.Println("Chat session ended.")
}
