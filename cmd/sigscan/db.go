// ABOUTME: Database inspection commands for signature tables
// ABOUTME: Lists the live tables of the configured directories and validates table files

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/feeds"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/scanner"
)

func newDBCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Signature table inspection commands",
		Long:  `Commands for inspecting the configured signature directories and checking table files.`,
	}

	cmd.AddCommand(newDBListCmd(global))
	cmd.AddCommand(newDBCheckCmd())

	return cmd
}

// tableInfo is the JSON form of one live table.
type tableInfo struct {
	Format      string `json:"format"`
	Source      string `json:"source"`
	Entries     int    `json:"entries"`
	Fingerprint string `json:"fingerprint"`
}

func newDBListCmd(global *globalOptions) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load the configured directories and list the live tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*global)
			if err != nil {
				return err
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			db, err := openDatabase(cfg, logger, false)
			if err != nil {
				return err
			}
			defer db.Close()

			summary := scanner.NewSummary("", version)
			if err := db.LoadDirs(cmd.Context(), cfg.DatabaseDir, summary); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tables := db.Tables()

			if outputJSON {
				infos := make([]tableInfo, 0, len(tables))
				for _, t := range tables {
					infos = append(infos, tableInfo{
						Format:      t.Format.String(),
						Source:      t.Source,
						Entries:     t.Len(),
						Fingerprint: t.Fingerprint,
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			if len(tables) == 0 {
				fmt.Fprintln(out, "No signature tables loaded.")
			}
			for _, t := range tables {
				fmt.Fprintf(out, "%-4s %8d  %s\n", t.Format, t.Len(), t.Source)
			}
			fmt.Fprintf(out, "Live signatures: %d\n", db.KnownSignatures())
			fmt.Fprintf(out, "Known viruses:   %d\n", summary.Known)
			fmt.Fprintf(out, "Fingerprint:     %s\n", db.Fingerprint())

			return nil
		},
	}

	cmd.Flags().BoolVarP(&outputJSON, "json", "j", false, "output as JSON")

	return cmd
}

func newDBCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <table>...",
		Short: "Parse table files and report the first error in each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0

			for _, path := range args {
				format := feeds.FormatFromPath(path)
				if format == feeds.FormatUnknown {
					fmt.Fprintf(out, "%s: %v (want .%s or .%s)\n", path, feeds.ErrUnknownFormat, feeds.HDBExt, feeds.HSBExt)
					failed++
					continue
				}

				table, err := feeds.LoadTable(path, format)
				if err != nil {
					fmt.Fprintf(out, "%s: %s\n", path, describeTableError(err))
					failed++
					continue
				}

				fmt.Fprintf(out, "%s: OK (%d entries)\n", path, table.Len())
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d tables failed validation", failed, len(args))
			}
			return nil
		},
	}
}

// describeTableError shortens parse errors to the line and entry.
func describeTableError(err error) string {
	var perr *feeds.ParseError
	if errors.As(err, &perr) {
		return fmt.Sprintf("line %d: %v: %q", perr.Line, perr.Err, perr.Text)
	}
	return err.Error()
}

