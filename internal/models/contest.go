package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// NotAvailable is the sentinel the extractor stores when a field was not found on the card.
const NotAvailable = "N/A"

// ContestStatus is the classification derived from a contest's raw status text.
type ContestStatus string

const (
	StatusUpcoming ContestStatus = "upcoming"
	StatusEnded    ContestStatus = "ended"
	StatusUnknown  ContestStatus = "unknown"
)

// ContestRecord is one contest as scraped from the aggregator and enriched by the pipeline.
type ContestRecord struct {
	Name     string `firestore:"name" json:"name" validate:"required"`
	Platform string `firestore:"platform" json:"platform" validate:"required"`
	URL      string `firestore:"url" json:"url" validate:"required"`
	// StartTime is nil when the start could not be derived from Duration.
	StartTime   *time.Time    `firestore:"startTime" json:"startTime"`
	Duration    string        `firestore:"duration" json:"duration" validate:"required,ne=N/A"`
	Status      ContestStatus `firestore:"status" json:"status" validate:"oneof=upcoming ended unknown"`
	// SolutionURL is nil unless a solution video was found for an ended contest.
	SolutionURL *string       `firestore:"solutionUrl" json:"solutionUrl" validate:"omitnil,url"`
	LastUpdated time.Time     `firestore:"lastUpdated" json:"lastUpdated"`
}

// Solution returns the solution video URL, or "" when there is none.
func (c ContestRecord) Solution() string {
	if c.SolutionURL == nil {
		return ""
	}
	return *c.SolutionURL
}

// Key returns the stable document identity derived from (name, platform).
func (c ContestRecord) Key() string {
	return ContestKey(c.Name, c.Platform)
}

// ContestKey hashes the natural key so it is safe as a Firestore document ID.
func ContestKey(name, platform string) string {
	hash := sha256.Sum256([]byte(name + "\x00" + platform))
	return hex.EncodeToString(hash[:])
}

// SortByStartTime orders contests by ascending start time. Contests with an
// unknown start sort after every known one; ties fall back to platform then name.
func SortByStartTime(contests []ContestRecord) {
	sort.SliceStable(contests, func(i, j int) bool {
		a, b := contests[i], contests[j]
		switch {
		case a.StartTime == nil && b.StartTime != nil:
			return false
		case a.StartTime != nil && b.StartTime == nil:
			return true
		case a.StartTime != nil && b.StartTime != nil && !a.StartTime.Equal(*b.StartTime):
			return a.StartTime.Before(*b.StartTime)
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.Name < b.Name
	})
}
