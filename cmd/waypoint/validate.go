package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/aretw0/waypoint/internal/validator"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <document[:line]>",
	Short: "Check a workflow region for consistency",
	Long: `Locates the region enclosing the line and reports its bounds, step count and
directive usage. A missing end marker fails validation; unrecognised directives,
stray resume markers and conditions on variables nobody sets are warnings.`,
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

		report := validator.ValidateRegion(text, line, env.Parser)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			printJSON(report)
		} else {
			printReport(report)
		}

		if err := report.Err(); err != nil {
			env.Close()
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Workflow is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Int("line", 0, "Cursor line inside the workflow region")
	validateCmd.Flags().Bool("json", false, "Print the report as JSON")
}

func printReport(r *validator.Report) {
	if r.End >= 0 {
		fmt.Printf("Region: lines %d-%d, %d steps\n", r.Start, r.End, r.Steps)
	}
	kinds := make([]string, 0, len(r.Directives))
	for k := range r.Directives {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-10s %d\n", k, r.Directives[domain.DirectiveKind(k)])
	}
	for _, i := range r.Issues {
		fmt.Printf("%s: line %d: %s\n", i.Severity, i.Line, i.Message)
	}
}
