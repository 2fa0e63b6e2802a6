// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/dispatch"
	"github.com/pdiddy/deep-research/pkg/types"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources <source> <operation> [argument]",
	Short: "Call one source connector directly",
	Long: `Sources runs a single connector operation without classification or
synthesis and prints the result as JSON.

Operations by source:
  literature  search <text> | author <name> | abstract <pmid> | related <pmid>
  trials      search <text> | condition <text> | location <text> | trial <nct_id>
  preprints   preprint <doi> | published <doi> | recent`,
	Example: `  deep-research sources literature abstract 31452104
  deep-research sources trials condition "long covid"
  deep-research sources preprints recent --days 3 --category neuroscience`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSources,
}

func init() {
	sourcesCmd.Flags().Int("max-results", 0, "maximum results (default from config)")
	sourcesCmd.Flags().Int("days", 0, "look-back window for recent preprints (default from config)")
	sourcesCmd.Flags().String("category", "", "subject category for recent preprints")
	sourcesCmd.Flags().String("server", "", "preprint server: biorxiv or medrxiv (default from config)")
	rootCmd.AddCommand(sourcesCmd)
}

// sourceOperations maps CLI verbs to connector operations per source.
var sourceOperations = map[types.Source]map[string]dispatch.Operation{
	types.SourceLiterature: {
		"search":   dispatch.OpSearch,
		"author":   dispatch.OpSearchByAuthor,
		"abstract": dispatch.OpFetchAbstract,
		"related":  dispatch.OpFetchRelated,
	},
	types.SourceTrials: {
		"search":    dispatch.OpSearch,
		"condition": dispatch.OpSearchByCondition,
		"location":  dispatch.OpSearchByLocation,
		"trial":     dispatch.OpFetchTrial,
	},
	types.SourcePreprints: {
		"preprint":  dispatch.OpFetchByDOI,
		"published": dispatch.OpFindPublishedVersion,
		"recent":    dispatch.OpListRecent,
	},
}

func runSources(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	days, _ := cmd.Flags().GetInt("days")
	category, _ := cmd.Flags().GetString("category")
	server, _ := cmd.Flags().GetString("server")

	call, err := buildSourceCall(args, appConfig.Sources.ClampResults(maxResults), days, category)
	if err != nil {
		return err
	}
	if call.Source == types.SourcePreprints {
		call.Server = server
	}
	if call.Operation == dispatch.OpListRecent && call.Days <= 0 {
		call.Days = appConfig.Sources.Biorxiv.RecentDays
	}

	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Sources.Timeout)
	defer cancel()

	data, err := newConnectors(appConfig.Sources).Invoke(ctx, call)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// buildSourceCall turns CLI arguments into a connector call.
func buildSourceCall(args []string, limit, days int, category string) (dispatch.Call, error) {
	source, ok := types.ParseSource(args[0])
	if !ok {
		return dispatch.Call{}, fmt.Errorf("unknown source %q (want literature, trials, or preprints)", args[0])
	}
	op, ok := sourceOperations[source][strings.ToLower(args[1])]
	if !ok {
		return dispatch.Call{}, fmt.Errorf("unknown %s operation %q", source, args[1])
	}
	arg := strings.TrimSpace(strings.Join(args[2:], " "))

	call := dispatch.Call{Source: source, Operation: op}
	switch op {
	case dispatch.OpListRecent:
		call.Days, call.Limit, call.Category = days, limit, category
		return call, nil
	case dispatch.OpFetchAbstract, dispatch.OpFetchTrial, dispatch.OpFetchByDOI, dispatch.OpFindPublishedVersion:
		call.ID = arg
	case dispatch.OpFetchRelated:
		call.ID, call.Limit = arg, limit
	default:
		call.Query, call.Limit = arg, limit
	}
	if arg == "" {
		return dispatch.Call{}, fmt.Errorf("%s %s requires an argument", source, args[1])
	}
	return call, nil
}
