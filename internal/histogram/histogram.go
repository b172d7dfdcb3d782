// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package histogram rebuilds the citations-per-year chart of a profile page.
//
// The chart is drawn as two unrelated element lists: year labels in
// document order, and bars that carry a z-index. Nothing links a bar to its
// label except that z-index: the label at position i belongs to the bar
// whose z-index is ZIndexOffset-i. Stacking order descends as position
// increases, so reading bars in document order misaligns years and counts.
package histogram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-stats/internal/extract"
	"github.com/pdiddy/scholar-stats/internal/failure"
	"github.com/pdiddy/scholar-stats/pkg/types"
)

// ZIndexOffset is the z-index of the bar paired with the first year label.
const ZIndexOffset = 10

const (
	labelSelector = "div.gsc_md_hist_b .gsc_g_t"
	barSelector   = "div.gsc_md_hist_b .gsc_g_a"
	countSelector = ".gsc_g_al"
)

var (
	zIndexPattern = regexp.MustCompile(`z-index\s*:\s*(-?\d+)`)
	yearLabel     = regexp.MustCompile(`^\d{4}$`)
)

// Bar is one chart bar: its stacking ordinal and the count text it shows.
type Bar struct {
	Ordinal int
	Text    string
}

// Ordinal returns the bar ordinal paired with the label at position.
func Ordinal(position int) int {
	return ZIndexOffset - position
}

// Reconcile pairs labels with bars by ordinal. Label i takes the first bar
// whose Ordinal equals Ordinal(i); a missing bar or a non-numeric count
// yields 0. Output order is label order. Blank labels are skipped but still
// occupy their position.
func Reconcile(labels []string, bars []Bar) types.CitationHistogram {
	byOrdinal := make(map[int]string, len(bars))
	for _, b := range bars {
		if _, seen := byOrdinal[b.Ordinal]; !seen {
			byOrdinal[b.Ordinal] = b.Text
		}
	}

	var h types.CitationHistogram
	for i, label := range labels {
		year := strings.TrimSpace(label)
		if year == "" {
			continue
		}
		count, _ := extract.ParseCount(byOrdinal[Ordinal(i)])
		h.Set(year, count)
	}
	return h
}

// Labels returns the trimmed year label texts in document order.
func Labels(doc *goquery.Document) []string {
	sel := doc.Find(labelSelector)
	labels := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(s.Text()))
	})
	return labels
}

// Bars returns every bar with a readable z-index, in document order.
// The second return value counts bars skipped for lacking one.
func Bars(doc *goquery.Document) ([]Bar, int) {
	var bars []Bar
	skipped := 0
	doc.Find(barSelector).Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		m := zIndexPattern.FindStringSubmatch(style)
		if m == nil {
			skipped++
			return
		}
		ord, err := strconv.Atoi(m[1])
		if err != nil {
			skipped++
			return
		}
		bars = append(bars, Bar{Ordinal: ord, Text: strings.TrimSpace(s.Find(countSelector).Text())})
	})
	return bars, skipped
}

// FromDocument reconciles the chart in doc. A page without a chart yields an
// empty histogram. A label that is not a four-digit year means the chart
// layout is not the one this package understands, and is reported as an
// extraction failure rather than guessed at.
func FromDocument(doc *goquery.Document, log *zap.Logger) (types.CitationHistogram, error) {
	if log == nil {
		log = zap.NewNop()
	}
	labels := Labels(doc)
	for i, l := range labels {
		if l != "" && !yearLabel.MatchString(l) {
			return types.CitationHistogram{}, failure.New(failure.KindExtraction, "reconcile",
				fmt.Errorf("year label %d is %q, not a four-digit year", i, l))
		}
	}
	bars, skipped := Bars(doc)
	if skipped > 0 {
		log.Warn("histogram bars without z-index ignored", zap.Int("skipped", skipped))
	}
	if len(labels) == 0 {
		log.Warn("no citation histogram found")
	}
	if len(labels) > ZIndexOffset+1 {
		log.Warn("more year labels than the z-index offset covers", zap.Int("labels", len(labels)))
	}

	h := Reconcile(labels, bars)
	log.Debug("histogram reconciled", zap.Int("labels", len(labels)), zap.Int("bars", len(bars)), zap.Int("years", h.Len()))
	return h, nil
}
