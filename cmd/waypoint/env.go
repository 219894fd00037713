package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/waypoint/internal/cli"
	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/settings"
	"github.com/spf13/cobra"
)

// loadSettings reads the --config file and applies the global overrides.
func loadSettings(cmd *cobra.Command) (*settings.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	s, err := settings.Load(path)
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		s.Documents.Root = dir
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		s.Store.Backend = store
	}
	return s, s.Validate()
}

// newEnv builds the command environment or exits.
func newEnv(cmd *cobra.Command, opts ...cli.EnvOption) *cli.Env {
	s, err := loadSettings(cmd)
	if err != nil {
		fatalf("Error loading settings: %v", err)
	}
	debug, _ := cmd.Flags().GetBool("debug")
	env, err := cli.NewEnv(s, append(opts, cli.WithDebug(debug))...)
	if err != nil {
		fatalf("Error initializing waypoint: %v", err)
	}
	return env
}

func fatalf(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

// parseTarget splits "notes/deploy.md:12" into a document ID and a line.
// Without a suffix the line is 0, the first line of the document.
func parseTarget(arg string) (string, int, error) {
	i := strings.LastIndex(arg, ":")
	if i < 0 {
		return arg, 0, nil
	}
	line, err := strconv.Atoi(arg[i+1:])
	if err != nil {
		// Not a line suffix; the colon belongs to the path.
		return arg, 0, nil
	}
	if line < 0 {
		return "", 0, fmt.Errorf("invalid line %d in %q", line, arg)
	}
	if arg[:i] == "" {
		return "", 0, fmt.Errorf("missing document in %q", arg)
	}
	return arg[:i], line, nil
}

// target resolves the document argument, letting --line override a suffix.
func target(cmd *cobra.Command, arg string) (string, int) {
	doc, line, err := parseTarget(arg)
	if err != nil {
		fatalf("Error: %v", err)
	}
	if cmd.Flags().Changed("line") {
		line, _ = cmd.Flags().GetInt("line")
	}
	return doc, line
}

// printStep writes a step as a terminal view or, with --json, as a StepResponse.
func printStep(cmd *cobra.Command, env *cli.Env, s *domain.Session, step domain.Step) {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		printJSON(domain.NewStepResponse(s, step))
		return
	}
	out := cmd.OutOrStdout()
	if s != nil {
		fmt.Fprintf(out, ">>> Session '%s' on %s, line %d.\n", s.ID, s.DocumentID, step.Line)
	}
	fmt.Fprint(out, tui.View(step, false, tui.RenderFunc(env.Renderer(out))))
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("Error encoding output: %v", err)
	}
	fmt.Println(string(data))
}
