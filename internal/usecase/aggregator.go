package usecase

import (
	"sort"

	"github.com/charmbracelet/log"
	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-report/internal/domain"
)

// Aggregator computes the end-of-run statistics over the written reports.
type Aggregator struct {
	logger *log.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(logger *log.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate fills the aggregate fields of run from reports. The row counters
// already present in run are kept.
func (a *Aggregator) Aggregate(run domain.RunStats, reports []*domain.Report) domain.RunStats {
	run.Written = len(reports)
	if len(reports) == 0 {
		return run
	}

	starData := make(stats.Float64Data, 0, len(reports))
	commitData := make(stats.Float64Data, 0, len(reports))
	languages := make(map[string]int)
	for _, r := range reports {
		starData = append(starData, float64(r.Stars))
		commitData = append(commitData, float64(r.CommitCount))
		run.TotalStars += r.Stars
		if r.Language != domain.LanguageUnspecified {
			languages[r.Language]++
		}
	}

	var err error
	if run.MeanStars, err = stats.Mean(starData); err != nil {
		a.logger.Debug("mean stars", "err", err)
	}
	if run.MedianStars, err = stats.Median(starData); err != nil {
		a.logger.Debug("median stars", "err", err)
	}
	if run.MeanCommits, err = stats.Mean(commitData); err != nil {
		a.logger.Debug("mean commits", "err", err)
	}
	run.TopLanguage = mostCommon(languages)
	return run
}

// mostCommon returns the key with the highest count, breaking ties by name.
func mostCommon(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
