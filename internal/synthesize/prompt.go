// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/pdiddy/deep-research/pkg/types"
)

const systemPrompt = `You are a biomedical research assistant. Your task is to synthesize information from multiple sources into a clear, well-structured response.
Format the response in a way that:
1. Directly answers the user's question
2. Provides relevant citations and sources (PMID, NCT ID, or DOI)
3. Highlights key findings and implications
4. Uses clear, professional language

Use only the information in the sources. If a source reports an error, say that it could not be consulted instead of guessing what it would have returned.
The response should be well-organized and easy to read.`

var userPromptTmpl = template.Must(template.New("synthesis").Parse(`Question: {{.Question}}

Sources: {{.Sources}}

Please provide a comprehensive answer based on these sources.`))

// userPrompt renders the question and the serialized results.
func userPrompt(question string, results []types.SourceResult) (string, error) {
	if results == nil {
		results = []types.SourceResult{}
	}
	blob, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = userPromptTmpl.Execute(&buf, struct {
		Question string
		Sources  string
	}{question, string(blob)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
