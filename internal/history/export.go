// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes up to limit answers, newest first, as a YAML list.
// A non-positive limit exports everything.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	answers, err := s.exportAnswers(ctx, limit)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(answers); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes up to limit answers, newest first, as an indented
// JSON array. A non-positive limit exports everything.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, limit int) error {
	answers, err := s.exportAnswers(ctx, limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(answers); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportAnswers(ctx context.Context, limit int) ([]types.ResearchAnswer, error) {
	if limit <= 0 {
		limit = exportLimit
	}
	answers, err := s.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	return answers, nil
}
