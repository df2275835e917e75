package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-recall/internal/agent"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Run one conversational turn",
		Long: "Run one full turn: search memory, reflect, answer, write back. Starts a\n" +
			"new conversation unless -c resumes an existing one.",
		Args: cobra.MinimumNArgs(1),
		Run:  runAsk,
	}

	cmd.Flags().StringP("conversation", "c", "", "Resume an existing conversation by id")

	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	convID, _ := cmd.Flags().GetString("conversation")
	question := strings.Join(args, " ")

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
		sess, err = a.StartSession(ctx, "")
	}
	if err != nil {
		exitErr("start session", err)
	}

	res, err := a.Turn(ctx, sess, question)
	if err != nil {
		exitErr("ask", err)
	}

	fmt.Println(res.Reply)
	if res.InsightsApplied {
		fmt.Printf("Insights applied: %s\n", res.Insights)
	}
}
