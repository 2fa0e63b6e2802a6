// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"text/template"
)

// classifierPromptTmpl is the system prompt for classification. It lists the
// sources, their query types, and the exact JSON shape expected back.
var classifierPromptTmpl = template.Must(template.New("classifier").Parse(`You are a biomedical query classifier. Your task is to:
1. Select ALL relevant biomedical databases for answering the query
2. Extract any specific identifiers (PMID, DOI, NCT ID)
3. Determine the query type based on the user's request

Available databases and their capabilities:
{{range .Sources}}
{{.Name}} ({{.Label}}):
{{- range .Capabilities}}
- {{.}}
{{- end}}
{{end}}
Choose ALL databases that could provide relevant information. For example:
- clinical trials and related research -> "literature" AND "trials"
- preprints and their published versions -> "preprints" AND "literature"
- a specific trial and related research -> "trials" AND "literature"

Identifier keys: "pmid", "doi", "nct_id". Omit identifiers that are not in the question.

IMPORTANT: Respond with ONLY a valid JSON object, no other text, using double quotes and no trailing commas:
{"databases": ["literature", "trials"], "identifiers": {}, "query_type": "search"}

More examples:
{"databases": ["literature"], "identifiers": {"pmid": "12345678"}, "query_type": "related"}
{"databases": ["literature"], "identifiers": {}, "query_type": "author"}
{"databases": ["preprints"], "identifiers": {"doi": "10.1101/2023.01.01.123456"}, "query_type": "published"}
`))

type promptSource struct {
	Name         string
	Label        string
	Capabilities []string
}

var promptSources = []promptSource{
	{
		Name:  "literature",
		Label: "PubMed",
		Capabilities: []string{
			`search articles matching a query (query_type "search")`,
			`retrieve the abstract of a specific article by PMID (query_type "abstract")`,
			`find articles related to a PMID (query_type "related")`,
			`search articles by a specific author (query_type "author")`,
		},
	},
	{
		Name:  "preprints",
		Label: "bioRxiv/medRxiv",
		Capabilities: []string{
			`get details of a preprint by DOI (query_type "preprint")`,
			`find the published version of a preprint by DOI (query_type "published")`,
			`list recent preprints (query_type "search")`,
		},
	},
	{
		Name:  "trials",
		Label: "ClinicalTrials.gov",
		Capabilities: []string{
			`search trials matching criteria (query_type "search")`,
			`get details of a specific trial by NCT ID (query_type "trial")`,
			`find trials by medical condition (query_type "condition")`,
			`find trials by location (query_type "location")`,
		},
	},
}

// systemPrompt renders the classifier system prompt.
func systemPrompt() (string, error) {
	var buf bytes.Buffer
	if err := classifierPromptTmpl.Execute(&buf, struct{ Sources []promptSource }{Sources: promptSources}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
