package main

import (
	"fmt"
	"os"

	"github.com/aretw0/waypoint/pkg/settings"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or create the settings file",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings (file, environment and overrides)",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadSettings(cmd)
		if err != nil {
			fatalf("Error loading settings: %v", err)
		}
		out, err := yaml.Marshal(s)
		if err != nil {
			fatalf("Error encoding settings: %v", err)
		}
		fmt.Print(string(out))
	},
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings to the --config file",
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			fatalf("Error: %s already exists (use --force to overwrite)", path)
		}
		if err := settings.Save(path, settings.Default()); err != nil {
			fatalf("Error writing settings: %v", err)
		}
		fmt.Printf("Wrote %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsInitCmd)

	settingsInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}
