package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect and remove the session snapshots kept by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all open sessions",
	Run: func(cmd *cobra.Command, args []string) {
		env := newEnv(cmd)
		defer env.Close()

		ids, err := env.Manager.List(cmd.Context())
		if err != nil {
			env.Close()
			fatalf("Error listing sessions: %v", err)
		}

		if len(ids) == 0 {
			fmt.Println("No open sessions found.")
			return
		}

		fmt.Println("Open Sessions:")
		for _, id := range ids {
			s, err := env.Manager.Load(cmd.Context(), id)
			if err != nil {
				fmt.Printf("- %s (unreadable: %v)\n", id, err)
				continue
			}
			fmt.Printf("- %s  %s:%d  %s\n", s.ID, s.DocumentID, s.Line, s.UpdatedAt.Format("2006-01-02 15:04"))
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the snapshot of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := newEnv(cmd)
		defer env.Close()

		s, err := env.Manager.Load(cmd.Context(), args[0])
		if err != nil {
			env.Close()
			fatalf("Error loading session '%s': %v", args[0], err)
		}
		printJSON(s)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Long: `Removes session snapshots. With --clean the session is cancelled instead,
which also strips its markers from the document.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		env := newEnv(cmd)
		defer env.Close()

		ids := args
		if all, _ := cmd.Flags().GetBool("all"); all {
			var err error
			if ids, err = env.Manager.List(cmd.Context()); err != nil {
				env.Close()
				fatalf("Error listing sessions: %v", err)
			}
		}
		clean, _ := cmd.Flags().GetBool("clean")

		hasError := false
		for _, id := range ids {
			var err error
			if clean {
				err = env.Discard(cmd.Context(), id)
			} else {
				err = env.Manager.Delete(cmd.Context(), id)
			}
			if err != nil {
				fmt.Printf("Error removing '%s': %v\n", id, err)
				hasError = true
			} else {
				fmt.Printf("Removed session '%s'\n", id)
			}
		}

		if hasError {
			env.Close()
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
	sessionRmCmd.Flags().Bool("clean", false, "Cancel the session and strip its markers from the document")
}
