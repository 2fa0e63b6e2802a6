// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"encoding/xml"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// PubMed efetch XML structures. Only the fields we surface are mapped.
type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Journal struct {
				Title   string `xml:"Title"`
				PubDate struct {
					Year        string `xml:"Year"`
					MedlineDate string `xml:"MedlineDate"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			Title    richText `xml:"ArticleTitle"`
			Abstract []abstractText `xml:"Abstract>AbstractText"`
			Authors []struct {
				LastName       string `xml:"LastName"`
				Initials       string `xml:"Initials"`
				CollectiveName string `xml:"CollectiveName"`
			} `xml:"AuthorList>Author"`
			ELocations []struct {
				Type  string `xml:"EIdType,attr"`
				Value string `xml:",chardata"`
			} `xml:"ELocationID"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	ArticleIDs []struct {
		Type  string `xml:"IdType,attr"`
		Value string `xml:",chardata"`
	} `xml:"PubmedData>ArticleIdList>ArticleId"`
}

// richText collects all character data of an element, including text
// inside inline markup such as <i> or <sup>.
type richText string

func (t *richText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				*t = richText(strings.Join(strings.Fields(b.String()), " "))
				return nil
			}
			depth--
		}
	}
}

// abstractText is one, possibly labelled, abstract section.
type abstractText struct {
	Label string
	Text  richText
}

func (a *abstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Label" {
			a.Label = attr.Value
		}
	}
	return a.Text.UnmarshalXML(d, start)
}

func (pa pubmedArticle) toArticle() types.Article {
	art := pa.Citation.Article
	pmid := strings.TrimSpace(pa.Citation.PMID)

	a := types.Article{
		PMID:    pmid,
		Title:   string(art.Title),
		Journal: strings.TrimSpace(art.Journal.Title),
		Authors: []string{},
		URL:     ArticleURL(pmid),
	}

	var sections []string
	for _, s := range art.Abstract {
		text := string(s.Text)
		if text == "" {
			continue
		}
		if s.Label != "" {
			text = s.Label + ": " + text
		}
		sections = append(sections, text)
	}
	a.Abstract = strings.Join(sections, "\n")

	for _, au := range art.Authors {
		switch {
		case au.CollectiveName != "":
			a.Authors = append(a.Authors, strings.TrimSpace(au.CollectiveName))
		case au.LastName != "":
			a.Authors = append(a.Authors, strings.TrimSpace(au.LastName+" "+au.Initials))
		}
	}

	a.Year = strings.TrimSpace(art.Journal.PubDate.Year)
	if a.Year == "" {
		if md := strings.TrimSpace(art.Journal.PubDate.MedlineDate); len(md) >= 4 {
			a.Year = md[:4]
		}
	}

	for _, id := range pa.ArticleIDs {
		if id.Type == "doi" {
			a.DOI = strings.TrimSpace(id.Value)
			break
		}
	}
	if a.DOI == "" {
		for _, loc := range art.ELocations {
			if loc.Type == "doi" {
				a.DOI = strings.TrimSpace(loc.Value)
				break
			}
		}
	}
	return a
}
