package main

import (
	"context"
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/spf13/cobra"
)

// One-shot commands drive a stored session through the stateless service,
// one action per invocation. They suit scripts and editor integrations.

var startCmd = &cobra.Command{
	Use:   "start <document[:line]>",
	Short: "Open a session without entering the interactive loop",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := newEnv(cmd)
		defer env.Close()

		doc, line := target(cmd, args[0])
		id, _ := cmd.Flags().GetString("session")
		s, step, err := env.Service().StartWithID(cmd.Context(), id, doc, line)
		if err != nil {
			env.Close()
			fatalf("Error starting session: %v", err)
		}
		printStep(cmd, env, s, step)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the step a session is on",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := newEnv(cmd)
		defer env.Close()

		s, step, err := env.Service().Current(cmd.Context(), args[0])
		if err != nil {
			env.Close()
			fatalf("Error loading session '%s': %v", args[0], err)
		}
		printStep(cmd, env, s, step)
	},
}

var nextCmd = &cobra.Command{
	Use:   "next <session-id>",
	Short: "Move a session to its next step",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := newEnv(cmd)
		defer env.Close()

		step, err := env.Service().Next(cmd.Context(), args[0])
		if err != nil {
			env.Close()
			fatalf("Error: %v", err)
		}
		printStep(cmd, env, &domain.Session{ID: args[0]}, step)
	},
}

var prevCmd = &cobra.Command{
	Use:     "prev <session-id>",
	Aliases: []string{"previous"},
	Short:   "Move a session to its previous step",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := newEnv(cmd)
		defer env.Close()

		step, err := env.Service().Previous(cmd.Context(), args[0])
		if err != nil {
			env.Close()
			fatalf("Error: %v", err)
		}
		printStep(cmd, env, &domain.Session{ID: args[0]}, step)
	},
}

var answerCmd = &cobra.Command{
	Use:   "answer <session-id> <name> <value>",
	Short: "Answer a prompt of the current step and save it into the document",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		env := newEnv(cmd)
		defer env.Close()

		position, _ := cmd.Flags().GetInt("position")
		step, err := env.Service().Answer(cmd.Context(), args[0], args[1], args[2], position)
		if err != nil {
			env.Close()
			fatalf("Error answering '%s': %v", args[1], err)
		}
		printStep(cmd, env, &domain.Session{ID: args[0]}, step)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <session-id>",
	Short: "Close a session and remove its markers from the document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		closeSession(cmd, args[0], "cancelled", (*session.Service).Cancel)
	},
}

var completeCmd = &cobra.Command{
	Use:     "complete <session-id>",
	Aliases: []string{"done"},
	Short:   "Close a session that reached its last step",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		closeSession(cmd, args[0], "completed", (*session.Service).Complete)
	},
}

func closeSession(cmd *cobra.Command, id, verb string, fn func(*session.Service, context.Context, string) error) {
	env := newEnv(cmd)
	defer env.Close()

	if err := fn(env.Service(), cmd.Context(), id); err != nil {
		env.Close()
		fatalf("Error closing session '%s': %v", id, err)
	}
	fmt.Printf("Session '%s' %s.\n", id, verb)
}

func init() {
	for _, c := range []*cobra.Command{startCmd, showCmd, nextCmd, prevCmd, answerCmd} {
		c.Flags().Bool("json", false, "Print the step as JSON")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(cancelCmd, completeCmd)

	startCmd.Flags().Int("line", 0, "Cursor line inside the workflow region")
	startCmd.Flags().String("session", "", "Session ID (generated when empty)")
	answerCmd.Flags().Int("position", -1, "Document line of the prompt; the first pending prompt with that name when negative")
}
