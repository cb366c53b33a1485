package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"

	"github.com/handlescan/handlescan/internal/config"
)

var (
	extended      bool
	versionOutput string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions, or --output json for machine-readable output.",
	RunE: func(cmd *cobra.Command, args []string) error {
		libVersion := crucible.GetVersion()

		if versionOutput == "json" {
			payload, err := json.MarshalIndent(struct {
				Name      string `json:"name"`
				Version   string `json:"version"`
				Commit    string `json:"commit"`
				BuildDate string `json:"build_date"`
				GoVersion string `json:"go_version"`
				Gofulmen  string `json:"gofulmen"`
				Crucible  string `json:"crucible"`
			}{
				Name:      config.AppName,
				Version:   versionInfo.Version,
				Commit:    versionInfo.Commit,
				BuildDate: versionInfo.BuildDate,
				GoVersion: runtime.Version(),
				Gofulmen:  libVersion.Gofulmen,
				Crucible:  libVersion.Crucible,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		}
		if versionOutput != "" && versionOutput != "text" {
			return fmt.Errorf("unsupported output format: %s", versionOutput)
		}

		if extended {
			// Extended version output
			fmt.Printf("%s %s\n", config.AppName, versionInfo.Version)
			fmt.Printf("Commit: %s\n", versionInfo.Commit)
			fmt.Printf("Built: %s\n", versionInfo.BuildDate)
			fmt.Printf("Go: %s\n", runtime.Version())
			fmt.Printf("\n")

			// Gofulmen and Crucible versions
			fmt.Printf("Gofulmen: %s\n", libVersion.Gofulmen)
			fmt.Printf("Crucible: %s\n", libVersion.Crucible)
		} else {
			// Basic version output
			fmt.Printf("%s %s\n", config.AppName, versionInfo.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "text", "output format: text, json")
}
