package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/html2md/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history [input]",
	Short: "List recent conversions recorded in the ledger",
	Long: `History reads the SQLite ledger written by runs started with --ledger and
prints the most recent job outcomes, newest first. Pass an input path to see
only the conversions of that file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("ledger", ledger.DefaultPath, "path of the SQLite ledger")
	historyCmd.Flags().Int("limit", 20, "maximum number of entries to show")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("ledger")
	if !cmd.Flags().Changed("ledger") {
		if v := viper.GetString("ledger"); v != "" {
			path = v
		}
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no ledger at %s: run a conversion with --ledger first", path)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	input := ""
	if len(args) == 1 {
		input = args[0]
	}

	store, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), input, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No conversions recorded.")
		return nil
	}

	fmt.Fprintf(out, "%-20s  %-9s  %-10s  %-40s  %s\n", "Recorded", "Status", "Backend", "Input", "Output / Error")
	fmt.Fprintln(out, strings.Repeat("-", 110))
	for _, e := range entries {
		detail := e.Output
		if e.Error != "" {
			detail = e.Error
		}
		fmt.Fprintf(out, "%-20s  %-9s  %-10s  %-40s  %s\n",
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"), e.Status, e.Backend, truncate(e.Input, 40), detail)
	}
	fmt.Fprintf(out, "\n%d entries\n", len(entries))
	return nil
}

// truncate shortens s to at most n runes, keeping its tail.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-(n-3):])
}
