// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trials

import (
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// ClinicalTrials.gov v2 JSON structures. Only the modules we surface are
// mapped.
type studiesResponse struct {
	Studies       []study `json:"studies"`
	NextPageToken string  `json:"nextPageToken"`
}

type study struct {
	Protocol struct {
		Identification struct {
			NCTID         string `json:"nctId"`
			BriefTitle    string `json:"briefTitle"`
			OfficialTitle string `json:"officialTitle"`
		} `json:"identificationModule"`
		Status struct {
			OverallStatus string `json:"overallStatus"`
			StartDate     struct {
				Date string `json:"date"`
			} `json:"startDateStruct"`
		} `json:"statusModule"`
		Sponsors struct {
			Lead struct {
				Name string `json:"name"`
			} `json:"leadSponsor"`
		} `json:"sponsorCollaboratorsModule"`
		Description struct {
			BriefSummary string `json:"briefSummary"`
		} `json:"descriptionModule"`
		Conditions struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
		Design struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		Arms struct {
			Interventions []struct {
				Type string `json:"type"`
				Name string `json:"name"`
			} `json:"interventions"`
		} `json:"armsInterventionsModule"`
		Contacts struct {
			Locations []struct {
				Facility string `json:"facility"`
				City     string `json:"city"`
				State    string `json:"state"`
				Country  string `json:"country"`
			} `json:"locations"`
		} `json:"contactsLocationsModule"`
	} `json:"protocolSection"`
}

func (s study) toTrial() types.Trial {
	p := s.Protocol
	t := types.Trial{
		NCTID:      p.Identification.NCTID,
		Title:      p.Identification.BriefTitle,
		Status:     p.Status.OverallStatus,
		Phases:     p.Design.Phases,
		Conditions: p.Conditions.Conditions,
		Sponsor:    p.Sponsors.Lead.Name,
		StartDate:  p.Status.StartDate.Date,
		Summary:    strings.TrimSpace(p.Description.BriefSummary),
	}
	if t.Title == "" {
		t.Title = p.Identification.OfficialTitle
	}
	if t.NCTID != "" {
		t.URL = StudyURL(t.NCTID)
	}

	for _, iv := range p.Arms.Interventions {
		name := iv.Name
		if iv.Type != "" {
			name = iv.Type + ": " + name
		}
		t.Interventions = append(t.Interventions, name)
	}

	for _, loc := range p.Contacts.Locations {
		var parts []string
		for _, v := range []string{loc.Facility, loc.City, loc.State, loc.Country} {
			if v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			t.Locations = append(t.Locations, strings.Join(parts, ", "))
		}
	}
	return t
}
