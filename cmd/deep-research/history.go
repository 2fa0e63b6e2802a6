// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/history"
	"github.com/pdiddy/deep-research/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and export past answers",
	Long: `History reads the local SQLite log of answers written by "ask" and
"serve". Use subcommands to list, show, or export them.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list [search text]",
	Short: "List recent answers, optionally filtered by text",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	answers, err := store.Search(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}
	return formatHistory(os.Stdout, answers, jsonOutput)
}

func formatHistory(w io.Writer, answers []types.ResearchAnswer, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answers)
	}

	if len(answers) == 0 {
		fmt.Fprintln(w, "No answers recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-7s  %s\n", "ID", "Created", "Sources", "Question")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, a := range answers {
		q := a.Query
		if len(q) > 45 {
			q = q[:42] + "..."
		}
		fmt.Fprintf(w, "%-36s  %-16s  %-7d  %s\n",
			a.ID, a.CreatedAt.Local().Format("2006-01-02 15:04"), len(a.RawResults), q)
	}
	fmt.Fprintf(w, "\n%d answers\n", len(answers))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	answer, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}
	fmt.Printf("Question: %s\n\n", answer.Query)
	printAnswer(os.Stdout, answer)
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored answers as YAML or JSON",
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	w := io.Writer(os.Stdout)
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	ctx := context.Background()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = store.ExportYAML(ctx, w, limit)
	case "json":
		err = store.ExportJSON(ctx, w, limit)
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
	}
	return nil
}

func requireHistory() (*history.Store, error) {
	if !appConfig.History.Enabled {
		return nil, fmt.Errorf("history is disabled (set history.enabled: true)")
	}
	return history.Open(appConfig.History.Path)
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of answers to list")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyShowCmd.Flags().Bool("json", false, "output as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("out", "", "output file (default: stdout)")
	historyExportCmd.Flags().Int("limit", 0, "maximum number of answers (0 = all)")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
