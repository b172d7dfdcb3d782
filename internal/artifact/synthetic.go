// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"time"

	"github.com/pdiddy/scholar-stats/pkg/types"
)

// SampleProfileID stands in when no profile id is known.
const SampleProfileID = "SAMPLE_ID"

// SyntheticMetrics is the fixed fallback metric set.
var SyntheticMetrics = types.ScholarMetrics{
	TotalCitations: 1248,
	HIndex:         18,
	I10Index:       25,
}

// syntheticYears is the fixed fallback histogram, oldest year first.
var syntheticYears = []types.YearCount{
	{Year: "2015", Count: 45},
	{Year: "2016", Count: 78},
	{Year: "2017", Count: 120},
	{Year: "2018", Count: 156},
	{Year: "2019", Count: 210},
	{Year: "2020", Count: 245},
	{Year: "2021", Count: 178},
	{Year: "2022", Count: 120},
	{Year: "2023", Count: 72},
	{Year: "2024", Count: 24},
}

// SyntheticHistogram returns a fresh copy of the fallback histogram.
func SyntheticHistogram() types.CitationHistogram {
	return types.NewHistogram(syntheticYears...)
}

// Synthetic returns the fallback artifact stamped with now. Only the
// timestamp and profile id vary between calls.
func Synthetic(profileID string, now time.Time) types.ScholarArtifact {
	if profileID == "" {
		profileID = SampleProfileID
	}
	return types.ScholarArtifact{
		Metadata: types.ArtifactMetadata{
			ProfileID:   profileID,
			Name:        "Sample Academic",
			Institution: "Sample University",
			FetchedAt:   now.UTC(),
			Source:      types.SourceFallback,
		},
		Metrics:         SyntheticMetrics,
		CitationsByYear: SyntheticHistogram(),
	}
}
