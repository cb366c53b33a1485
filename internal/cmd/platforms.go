package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/handlescan/handlescan/internal/config"
	"github.com/handlescan/handlescan/internal/core"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List supported platforms",
	Long: `List every supported platform with the query kinds it accepts, whether
a setup request runs before checks, and the username syntax it enforces.`,
	RunE: runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)

	platformsCmd.Flags().Bool("sets", false, "List platform sets instead of platforms")
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	showSets, err := cmd.Flags().GetBool("sets")
	if err != nil {
		return err
	}

	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	var userSets []core.Set
	if cfg.Sets != "" {
		userSets, err = core.LoadSetsFile(cfg.Sets)
		if err != nil {
			return err
		}
	}

	if showSets {
		fmt.Println(renderSets(userSets))
		return nil
	}
	fmt.Println(renderPlatforms())
	return nil
}

func renderPlatforms() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Platform", "Kinds", "Setup", "Username rules"})
	for _, p := range core.Platforms() {
		t.AppendRow(table.Row{p.Name, kindsCell(p.Kinds), setupCell(p.NeedsSetup), rulesCell(p)})
	}
	return t.Render()
}

func renderSets(userSets []core.Set) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Set", "Platforms", "Description"})
	for _, s := range core.BuiltInSets {
		t.AppendRow(table.Row{s.Name, strings.Join(s.Platforms, ", "), s.Description})
	}
	for _, s := range userSets {
		t.AppendRow(table.Row{s.Name, strings.Join(s.Platforms, ", "), s.Description})
	}
	return t.Render()
}

func kindsCell(kinds []core.Kind) string {
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, ", ")
}

func setupCell(needsSetup bool) string {
	if needsSetup {
		return "token"
	}
	return "none"
}

func rulesCell(p core.Platform) string {
	parts := make([]string, 0, 2)
	switch {
	case p.MinLength > 0 && p.MaxLength > 0:
		parts = append(parts, fmt.Sprintf("%d-%d chars", p.MinLength, p.MaxLength))
	case p.MaxLength > 0:
		parts = append(parts, fmt.Sprintf("up to %d chars", p.MaxLength))
	case p.MinLength > 0:
		parts = append(parts, fmt.Sprintf("at least %d chars", p.MinLength))
	}
	if p.Pattern != nil {
		parts = append(parts, p.Pattern.String())
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
