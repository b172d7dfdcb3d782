// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract reads citation metrics and profile identity out of a
// profile page. The page has no machine-readable schema: metrics are found
// by their position among the statistic rows, never by label text.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-stats/internal/failure"
	"github.com/pdiddy/scholar-stats/pkg/types"
)

// Placeholders used when the identity markup is missing.
const (
	PlaceholderName        = "Academic Profile"
	PlaceholderInstitution = "Institution"
)

const (
	statsTableSelector  = "#gsc_rsb_st"
	statCellSelector    = "td.gsc_rsb_std"
	statHeaderSelector  = "#gsc_rsb_st th"
	nameSelector        = "#gsc_prf_in, .gsc_prf_in"
	institutionSelector = ".gsc_prf_il"
	interestSelector    = "#gsc_prf_int .gs_ibl"
)

// Statistic rows in page order.
const (
	rowCitations = iota
	rowHIndex
	rowI10Index
)

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// Parse builds a queryable document from raw markup.
func Parse(markup []byte) (*goquery.Document, error) {
	if len(bytes.TrimSpace(markup)) == 0 {
		return nil, failure.New(failure.KindExtraction, "parse", fmt.Errorf("empty document"))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, failure.New(failure.KindExtraction, "parse", fmt.Errorf("parsing markup: %w", err))
	}
	return doc, nil
}

// Extract returns the three headline metrics and the profile identity.
// Missing or non-numeric metrics are 0 and missing identity fields get
// placeholders. It fails only when the page carries neither statistic rows
// nor a profile name, which means it is not a profile page at all (a
// consent or captcha interstitial, for instance).
func Extract(doc *goquery.Document, log *zap.Logger) (types.ScholarMetrics, types.ProfileIdentity, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rows := statRows(doc)
	nameSel := doc.Find(nameSelector).First()

	if rows.Length() == 0 && nameSel.Length() == 0 {
		return types.ScholarMetrics{}, types.ProfileIdentity{},
			failure.New(failure.KindExtraction, "extract", fmt.Errorf("no statistic rows or profile name in document"))
	}
	if rows.Length() < 3 {
		log.Warn("fewer statistic rows than expected", zap.Int("rows", rows.Length()))
	}

	metrics := types.ScholarMetrics{
		TotalCitations: metricAt(rows, rowCitations, 0, "totalCitations", log),
		HIndex:         metricAt(rows, rowHIndex, 0, "h_index", log),
		I10Index:       metricAt(rows, rowI10Index, 0, "i10_index", log),
	}
	return metrics, Identity(doc, log), nil
}

// Identity reads name, institution and research interests. The first
// matching element wins for name and institution.
func Identity(doc *goquery.Document, log *zap.Logger) types.ProfileIdentity {
	if log == nil {
		log = zap.NewNop()
	}
	id := types.ProfileIdentity{
		Name:        strings.TrimSpace(doc.Find(nameSelector).First().Text()),
		Institution: strings.TrimSpace(doc.Find(institutionSelector).First().Text()),
	}
	if id.Name == "" {
		log.Warn("profile name not found, using placeholder")
		id.Name = PlaceholderName
	}
	if id.Institution == "" {
		log.Warn("institution not found, using placeholder")
		id.Institution = PlaceholderInstitution
	}
	doc.Find(interestSelector).Each(func(_ int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.Text()); v != "" {
			id.Interests = append(id.Interests, v)
		}
	})
	return id
}

// Since reads the recent-window column of the statistics table. It returns
// nil when the table has no second value column.
func Since(doc *goquery.Document, log *zap.Logger) *types.SinceMetrics {
	if log == nil {
		log = zap.NewNop()
	}
	rows := statRows(doc)
	hasColumn := false
	rows.Each(func(_ int, s *goquery.Selection) {
		if s.Find(statCellSelector).Length() >= 2 {
			hasColumn = true
		}
	})
	if !hasColumn {
		return nil
	}
	return &types.SinceMetrics{
		Year:           sinceYear(doc),
		TotalCitations: metricAt(rows, rowCitations, 1, "since.totalCitations", log),
		HIndex:         metricAt(rows, rowHIndex, 1, "since.h_index", log),
		I10Index:       metricAt(rows, rowI10Index, 1, "since.i10_index", log),
	}
}

// ParseCount parses a metric cell. Thousands separators are ignored.
// Non-numeric or negative text reports ok=false.
func ParseCount(text string) (n int, ok bool) {
	s := strings.TrimSpace(text)
	s = strings.NewReplacer(",", "", "\u00a0", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// statRows returns the statistic rows in document order. A row counts when
// it holds at least one value cell, which skips the header row.
func statRows(doc *goquery.Document) *goquery.Selection {
	scope := doc.Find(statsTableSelector)
	if scope.Length() == 0 {
		scope = doc.Selection
	}
	return scope.Find("tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find(statCellSelector).Length() > 0
	})
}

// metricAt parses the value cell col of statistic row row, defaulting to 0.
func metricAt(rows *goquery.Selection, row, col int, field string, log *zap.Logger) int {
	cell := rows.Eq(row).Find(statCellSelector).Eq(col)
	if cell.Length() == 0 {
		log.Warn("metric cell missing, defaulting to 0", zap.String("field", field))
		return 0
	}
	text := strings.TrimSpace(cell.Text())
	n, ok := ParseCount(text)
	if !ok {
		log.Warn("metric not numeric, defaulting to 0", zap.String("field", field), zap.String("text", text))
	}
	return n
}

// sinceYear finds the window start year in the table header, preferring a
// header that says "Since" and falling back to the third header cell.
func sinceYear(doc *goquery.Document) string {
	headers := doc.Find(statHeaderSelector)
	year := ""
	headers.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "Since") {
			return true
		}
		if m := yearPattern.FindStringSubmatch(text); m != nil {
			year = m[1]
			return false
		}
		return true
	})
	if year == "" && headers.Length() >= 3 {
		if m := yearPattern.FindStringSubmatch(headers.Eq(2).Text()); m != nil {
			year = m[1]
		}
	}
	return year
}
