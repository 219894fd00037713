package main

import (
	"fmt"
	"os"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [document[:line]]",
	Short: "Step through a workflow interactively",
	Long: `Opens the workflow region enclosing the given line and walks it step by step.
Lines are 0-based, as shown in step views. With --session an open session is
resumed and the document argument may be omitted.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var opts cli.RunOptions
		if len(args) > 0 {
			opts.DocumentID, opts.Line = target(cmd, args[0])
		}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")

		if opts.DocumentID == "" && opts.SessionID == "" {
			fmt.Println("Error: a document or --session is required.")
			os.Exit(1)
		}

		env := newEnv(cmd)
		defer env.Close()

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		if err := cli.Execute(sc, env, opts); err != nil {
			env.Close()
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("line", 0, "Cursor line inside the workflow region")
	runCmd.Flags().String("session", "", "Session ID to resume or create")
	runCmd.Flags().Bool("headless", false, "Run without confirmations or banner")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().BoolP("watch", "w", false, "Re-read the step when the document changes on disk")
	runCmd.Flags().Bool("fresh", false, "Cancel a stored session with the same ID before starting")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress banner and status messages")
}
