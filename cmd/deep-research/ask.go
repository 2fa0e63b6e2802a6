// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one research question",
	Long: `Ask classifies the question, queries every relevant source concurrently,
and prints a synthesized answer followed by a per-source summary.

Use --raw to skip synthesis and print the per-source results as JSON, and
--sources to bypass classification and query the named sources directly.`,
	Example: `  deep-research ask "What are the latest developments in mRNA vaccine technology?"
  deep-research ask --max-results 5 --json "Find trials for long COVID in Boston"
  deep-research ask --sources literature,trials "BRCA1 PARP inhibitor trials"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int("max-results", 0, "maximum results per source (default from config)")
	askCmd.Flags().Bool("json", false, "print the full answer as JSON")
	askCmd.Flags().Bool("raw", false, "skip synthesis and print raw per-source results")
	askCmd.Flags().String("sources", "", "comma-separated sources to query instead of classifying (literature, trials, preprints)")
	askCmd.Flags().Bool("no-history", false, "do not record this answer in history")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	maxResults = appConfig.Sources.ClampResults(maxResults)
	jsonOutput, _ := cmd.Flags().GetBool("json")
	raw, _ := cmd.Flags().GetBool("raw")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	sourceList, _ := cmd.Flags().GetString("sources")

	pinned, err := pinnedIntent(sourceList)
	if err != nil {
		return err
	}

	var rec research.Recorder
	if !noHistory && !raw {
		store, err := openHistory(appConfig.History)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
			rec = store
		}
	}

	svc := newService(appConfig, newConnectors(appConfig.Sources), pinned, rec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if raw {
		results, _, err := svc.Research(ctx, question, maxResults)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Fprintf(os.Stderr, "Researching: %s\n", question)
	answer, err := svc.Answer(ctx, question, maxResults)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}
	printAnswer(os.Stdout, answer)
	return nil
}

// pinnedIntent builds a search intent over the named sources, or nil when
// list is empty.
func pinnedIntent(list string) (*types.Intent, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	in := types.Intent{Identifiers: map[types.IdentifierKind]string{}, QueryType: types.QuerySearch}
	seen := map[types.Source]bool{}
	for _, name := range strings.Split(list, ",") {
		s, ok := types.ParseSource(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q (want literature, trials, or preprints)", strings.TrimSpace(name))
		}
		if !seen[s] {
			seen[s] = true
			in.Databases = append(in.Databases, s)
		}
	}
	return &in, nil
}

func printAnswer(w io.Writer, a *types.ResearchAnswer) {
	fmt.Fprintln(w, a.Synthesis)
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, r := range a.RawResults {
		if r.OK() {
			fmt.Fprintf(w, "%-10s  ok     %s\n", r.Source, describeData(r.Data))
		} else {
			fmt.Fprintf(w, "%-10s  error  %s\n", r.Source, r.Error)
		}
	}
	fmt.Fprintf(w, "\nanswer id: %s\n", a.ID)
}

// describeData summarizes a connector payload in a few words.
func describeData(data any) string {
	switch d := data.(type) {
	case []types.Article:
		return fmt.Sprintf("%d article(s)", len(d))
	case []types.Trial:
		return fmt.Sprintf("%d trial(s)", len(d))
	case []types.Preprint:
		return fmt.Sprintf("%d preprint(s)", len(d))
	case *types.Article:
		return "PMID " + d.PMID
	case *types.Trial:
		return d.NCTID
	case *types.Preprint:
		return "preprint " + d.DOI
	case *types.Publication:
		return "published as " + d.PublishedDOI
	case []any:
		return fmt.Sprintf("%d record(s)", len(d))
	default:
		return "1 record"
	}
}
