// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Article is a PubMed record.
type Article struct {
	// PMID is the PubMed identifier.
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Abstract joins all abstract sections, labelled where PubMed labels them.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists author names in source order ("Last Initials").
	Authors []string `json:"authors" yaml:"authors"`

	// Journal is the journal title.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Year is the publication year as printed by PubMed.
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the article DOI when PubMed lists one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL links to the PubMed page.
	URL string `json:"url" yaml:"url"`
}

// Trial is a ClinicalTrials.gov study summary.
type Trial struct {
	NCTID         string   `json:"nct_id" yaml:"nct_id"`
	Title         string   `json:"title" yaml:"title"`
	Status        string   `json:"status,omitempty" yaml:"status,omitempty"`
	Phases        []string `json:"phases,omitempty" yaml:"phases,omitempty"`
	Conditions    []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Interventions []string `json:"interventions,omitempty" yaml:"interventions,omitempty"`
	Sponsor       string   `json:"sponsor,omitempty" yaml:"sponsor,omitempty"`
	StartDate     string   `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	Locations     []string `json:"locations,omitempty" yaml:"locations,omitempty"`
	Summary       string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	URL           string   `json:"url" yaml:"url"`
}

// Preprint is a bioRxiv or medRxiv record.
type Preprint struct {
	DOI       string `json:"doi" yaml:"doi"`
	Title     string `json:"title" yaml:"title"`
	Authors   string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Category  string `json:"category,omitempty" yaml:"category,omitempty"`
	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Abstract  string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Server    string `json:"server" yaml:"server"`
	Published string `json:"published,omitempty" yaml:"published,omitempty"`
	URL       string `json:"url" yaml:"url"`
}

// Publication links a preprint to its journal version.
type Publication struct {
	PreprintDOI   string `json:"preprint_doi" yaml:"preprint_doi"`
	PublishedDOI  string `json:"published_doi" yaml:"published_doi"`
	Journal       string `json:"journal,omitempty" yaml:"journal,omitempty"`
	PublishedDate string `json:"published_date,omitempty" yaml:"published_date,omitempty"`
	PreprintTitle string `json:"preprint_title,omitempty" yaml:"preprint_title,omitempty"`
	Server        string `json:"server" yaml:"server"`
}
