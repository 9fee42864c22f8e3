// Package domain contains the core data structures and domain logic for the application.
package domain

// RunStats holds the outcome of one batch run.
// Counts cover every input row; the aggregate figures cover written reports only.
type RunStats struct {
	Rows        int     `json:"rows"`
	Written     int     `json:"written"`
	Invalid     int     `json:"invalid"`
	Failed      int     `json:"failed"`
	TotalStars  int     `json:"total_stars"`
	MeanStars   float64 `json:"mean_stars"`
	MedianStars float64 `json:"median_stars"`
	MeanCommits float64 `json:"mean_commits"`
	TopLanguage string  `json:"top_language"`
}
