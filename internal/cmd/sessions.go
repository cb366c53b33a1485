package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/handlescan/handlescan/internal/config"
	"github.com/handlescan/handlescan/internal/core"
	"github.com/handlescan/handlescan/internal/output"
)

var (
	sessionsListOutput   string
	sessionsClearTarget  string
	sessionsClearAll     bool
	sessionsClearConfirm bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted platform sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions held in the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(sessionsListOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		sessions, err := db.LoadSessions(cmd.Context())
		if err != nil {
			return err
		}

		summaries := summarizeSessions(sessions, time.Now())

		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(summaries, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		}

		lines := []string{"Platform Sessions", ""}
		if len(summaries) == 0 {
			lines = append(lines, "(no persisted sessions)")
			fmt.Print(ascii.DrawBox(strings.Join(lines, "\n"), 0))
			return nil
		}
		for _, s := range summaries {
			lines = append(lines, fmt.Sprintf("%s: keys=%s age=%s", s.Platform, strings.Join(s.Keys, ","), s.Age))
		}
		fmt.Print(ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return nil
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete persisted sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := strings.TrimSpace(sessionsClearTarget)
		if target == "" && !sessionsClearAll {
			return errors.New("specify --platform or --all")
		}
		if target != "" && sessionsClearAll {
			return errors.New("--platform and --all are mutually exclusive")
		}
		if sessionsClearAll && !sessionsClearConfirm {
			return errors.New("--all requires --yes")
		}

		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		if target != "" {
			platform, ok := core.FindPlatform(target)
			if !ok {
				return fmt.Errorf("unknown platform %q", target)
			}
			if err := db.DeleteSession(cmd.Context(), platform.Name); err != nil {
				return err
			}
			fmt.Printf("Cleared session for %s\n", platform.Name)
			return nil
		}

		deleted, err := db.ClearSessions(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d session(s)\n", deleted)
		return nil
	},
}

// sessionSummary is the listing shape: key names only, never token values.
type sessionSummary struct {
	Platform   string    `json:"platform"`
	Keys       []string  `json:"keys"`
	AcquiredAt time.Time `json:"acquired_at"`
	Age        string    `json:"age"`
}

func summarizeSessions(sessions []*core.Session, now time.Time) []sessionSummary {
	summaries := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		keys := make([]string, 0, len(s.Values))
		for key := range s.Values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		summaries = append(summaries, sessionSummary{
			Platform:   s.Platform,
			Keys:       keys,
			AcquiredAt: s.AcquiredAt,
			Age:        s.Age(now).Round(time.Second).String(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Platform < summaries[j].Platform })
	return summaries
}

func init() {
	sessionsListCmd.Flags().StringVar(&sessionsListOutput, "output", string(output.FormatTable), "Output format: table|json")
	sessionsClearCmd.Flags().StringVar(&sessionsClearTarget, "platform", "", "Clear the session for a single platform")
	sessionsClearCmd.Flags().BoolVar(&sessionsClearAll, "all", false, "Clear every persisted session")
	sessionsClearCmd.Flags().BoolVar(&sessionsClearConfirm, "yes", false, "Confirm destructive clear")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
	rootCmd.AddCommand(sessionsCmd)
}
