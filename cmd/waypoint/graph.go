package main

import (
	"fmt"

	"github.com/aretw0/waypoint/internal/presentation/graph"
	"github.com/aretw0/waypoint/internal/runtime"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <document[:line]>",
	Short: "Export the workflow as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the steps in the region enclosing
the line, with conditional edges. The step marked for resumption, or the step
of --session, is highlighted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := newEnv(cmd)
		defer env.Close()

		doc, line := target(cmd, args[0])
		text, err := env.Documents.Read(cmd.Context(), doc)
		if err != nil {
			env.Close()
			fatalf("Error reading '%s': %v", doc, err)
		}

		wf, err := runtime.New(text, line, runtime.WithParser(env.Parser), runtime.WithLogger(env.Logger))
		if err != nil {
			env.Close()
			fatalf("Error loading workflow: %v", err)
		}
		wf.Begin()

		var overlay *graph.GraphOverlay
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			snap, err := env.Manager.Load(cmd.Context(), id)
			if err != nil {
				env.Close()
				fatalf("Error loading session '%s': %v", id, err)
			}
			if k, ok := wf.Local(snap.Line); ok {
				overlay = &graph.GraphOverlay{Current: k}
			}
		} else if wf.HasResumeMarker() {
			overlay = &graph.GraphOverlay{Current: wf.Position()}
		}

		fmt.Print(graph.GenerateMermaid(wf.Outline(), overlay))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Int("line", 0, "Cursor line inside the workflow region")
	graphCmd.Flags().String("session", "", "Highlight the step of this session")
}
