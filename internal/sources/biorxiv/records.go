// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biorxiv

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// flexInt decodes a count the API sends either as a number or a string.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		var f float64
		if ferr := json.Unmarshal([]byte(s), &f); ferr != nil {
			return err
		}
		v = int(f)
	}
	*n = flexInt(v)
	return nil
}

type message struct {
	Status string  `json:"status"`
	Count  flexInt `json:"count"`
	Total  flexInt `json:"total"`
}

type detailsResponse struct {
	Messages   []message      `json:"messages"`
	Collection []detailRecord `json:"collection"`
}

// total is the number of records in the whole interval.
func (r *detailsResponse) total() int {
	if len(r.Messages) == 0 {
		return 0
	}
	return int(r.Messages[0].Total)
}

type detailRecord struct {
	DOI       string `json:"doi"`
	Title     string `json:"title"`
	Authors   string `json:"authors"`
	Date      string `json:"date"`
	Version   string `json:"version"`
	Category  string `json:"category"`
	Abstract  string `json:"abstract"`
	Published string `json:"published"`
	Server    string `json:"server"`
}

func (r detailRecord) toPreprint(server string) types.Preprint {
	if r.Server != "" {
		server = strings.ToLower(r.Server)
	}
	p := types.Preprint{
		DOI:      r.DOI,
		Title:    strings.TrimSpace(r.Title),
		Authors:  strings.TrimSpace(r.Authors),
		Category: r.Category,
		Date:     r.Date,
		Version:  r.Version,
		Abstract: strings.TrimSpace(r.Abstract),
		Server:   server,
		URL:      PreprintURL(server, r.DOI, r.Version),
	}
	if r.Published != "NA" {
		p.Published = r.Published
	}
	return p
}

type pubsResponse struct {
	Messages   []message   `json:"messages"`
	Collection []pubRecord `json:"collection"`
}

type pubRecord struct {
	BiorxivDOI       string `json:"biorxiv_doi"`
	MedrxivDOI       string `json:"medrxiv_doi"`
	PreprintDOI      string `json:"preprint_doi"`
	PublishedDOI     string `json:"published_doi"`
	PublishedJournal string `json:"published_journal"`
	PublishedDate    string `json:"published_date"`
	PreprintTitle    string `json:"preprint_title"`
	Platform         string `json:"preprint_platform"`
}

func (r pubRecord) toPublication(server, doi string) types.Publication {
	preprint := doi
	for _, v := range []string{r.PreprintDOI, r.BiorxivDOI, r.MedrxivDOI} {
		if v != "" {
			preprint = v
			break
		}
	}
	if r.Platform != "" {
		server = strings.ToLower(r.Platform)
	}
	return types.Publication{
		PreprintDOI:   preprint,
		PublishedDOI:  r.PublishedDOI,
		Journal:       r.PublishedJournal,
		PublishedDate: r.PublishedDate,
		PreprintTitle: strings.TrimSpace(r.PreprintTitle),
		Server:        server,
	}
}
