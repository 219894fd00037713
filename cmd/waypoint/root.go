package main

import (
	"fmt"
	"os"

	"github.com/aretw0/waypoint/pkg/settings"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "Waypoint steps through checklists embedded in Markdown notes",
	Long: `Waypoint interprets bullet outlines fenced by %%workflow start%% and
%%workflow end%% comments as step-by-step workflows. Progress, answers and
variables are written back into the note itself.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", settings.DefaultFile, "Settings file")
	rootCmd.PersistentFlags().String("dir", "", "Document root (overrides documents.root)")
	rootCmd.PersistentFlags().String("store", "", "Session store backend: memory, file or redis")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}
