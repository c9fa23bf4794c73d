package domain

import (
	"context"
	"sort"
	"time"
)

// Per-subject difficulty classifications derived from attempt history.
const (
	ClassificationEasy   = "easy"
	ClassificationMedium = "medium"
	ClassificationHard   = "hard"
)

// SubjectCatalog is the fixed set of subjects the tutor teaches, ordered the
// way they appear in the curriculum.
var SubjectCatalog = []string{
	"arithmetic",
	"fractions",
	"algebra",
	"geometry",
	"word_problems",
	"statistics",
	"calculus",
}

// ProblemAttempt is one row of a user's attempt history.
type ProblemAttempt struct {
	ID               string
	Key              ProfileKey
	Subject          string
	Difficulty       string
	Attempts         int
	TimeSpentSeconds int
	HintsUsed        int
	Completed        bool
	AttemptedAt      time.Time
}

// SubjectPerformance summarizes a user's history for one subject.
type SubjectPerformance struct {
	Subject        string
	TotalProblems  int
	AvgAttempts    float64
	AvgTimeSeconds float64
	AvgHints       float64
	CompletionRate float64
	Classification string
}

// PerformanceReport is the per-subject summary of a user's whole history
// window, recomputed from raw rows on every request.
type PerformanceReport struct {
	Subjects map[string]SubjectPerformance
}

// SummarizePerformance groups attempts by subject and computes the per-subject
// averages and difficulty classification. Subjects with no recorded attempts
// are absent from the report and default to medium when queried.
func SummarizePerformance(attempts []ProblemAttempt) PerformanceReport {
	report := PerformanceReport{Subjects: make(map[string]SubjectPerformance)}
	grouped := make(map[string][]ProblemAttempt)
	for _, a := range attempts {
		grouped[a.Subject] = append(grouped[a.Subject], a)
	}
	for subject, rows := range grouped {
		var attemptsSum, timeSum, hintsSum, completed int
		for _, r := range rows {
			attemptsSum += r.Attempts
			timeSum += r.TimeSpentSeconds
			hintsSum += r.HintsUsed
			if r.Completed {
				completed++
			}
		}
		n := float64(len(rows))
		perf := SubjectPerformance{
			Subject:        subject,
			TotalProblems:  len(rows),
			AvgAttempts:    float64(attemptsSum) / n,
			AvgTimeSeconds: float64(timeSum) / n,
			AvgHints:       float64(hintsSum) / n,
			CompletionRate: float64(completed) / n,
		}
		perf.Classification = classify(perf)
		report.Subjects[subject] = perf
	}
	return report
}

// classify buckets a subject into easy/medium/hard from its averages.
func classify(p SubjectPerformance) string {
	if p.AvgAttempts < 2 && p.AvgTimeSeconds < 300 && p.AvgHints < 1 && p.CompletionRate > 0.8 {
		return ClassificationEasy
	}
	if p.AvgAttempts > 4 || p.AvgTimeSeconds > 900 || p.AvgHints > 3 || p.CompletionRate < 0.5 {
		return ClassificationHard
	}
	return ClassificationMedium
}

// ClassificationFor returns the classification for a subject, defaulting to
// medium when there is no signal.
func (r PerformanceReport) ClassificationFor(subject string) string {
	if perf, ok := r.Subjects[subject]; ok {
		return perf.Classification
	}
	return ClassificationMedium
}

// WeakAreas returns subjects classified hard or with a completion rate below
// one half, most hint- and time-hungry first.
func (r PerformanceReport) WeakAreas() []SubjectPerformance {
	var weak []SubjectPerformance
	for _, perf := range r.Subjects {
		if perf.Classification == ClassificationHard || perf.CompletionRate < 0.5 {
			weak = append(weak, perf)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		if weak[i].AvgHints != weak[j].AvgHints {
			return weak[i].AvgHints > weak[j].AvgHints
		}
		if weak[i].AvgTimeSeconds != weak[j].AvgTimeSeconds {
			return weak[i].AvgTimeSeconds > weak[j].AvgTimeSeconds
		}
		return weak[i].Subject < weak[j].Subject
	})
	return weak
}

// StrongAreas returns subjects classified easy, alphabetical for stable output.
func (r PerformanceReport) StrongAreas() []SubjectPerformance {
	var strong []SubjectPerformance
	for _, perf := range r.Subjects {
		if perf.Classification == ClassificationEasy {
			strong = append(strong, perf)
		}
	}
	sort.SliceStable(strong, func(i, j int) bool {
		return strong[i].Subject < strong[j].Subject
	})
	return strong
}

// UnseenSubjects returns catalog subjects with no recorded attempts, in
// catalog order.
func (r PerformanceReport) UnseenSubjects() []string {
	var unseen []string
	for _, subject := range SubjectCatalog {
		if _, ok := r.Subjects[subject]; !ok {
			unseen = append(unseen, subject)
		}
	}
	return unseen
}

// HistoryWindow bounds an attempt-history query. A zero window means all-time.
type HistoryWindow struct {
	Since time.Time
}

// AttemptRepository defines persistence for problem-attempt history.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt *ProblemAttempt) error
	// GetHistory returns attempts in the window, newest first.
	GetHistory(ctx context.Context, key ProfileKey, window HistoryWindow) ([]ProblemAttempt, error)
	// CountCompletedOn counts completed attempts on one calendar day.
	CountCompletedOn(ctx context.Context, key ProfileKey, day time.Time) (int, error)
	// RecentSubjects returns distinct subjects attempted in the window.
	RecentSubjects(ctx context.Context, key ProfileKey, window HistoryWindow) ([]string, error)
	// BatchCountSolved returns completed-attempt counts for account-level
	// users; missing users are absent from the map.
	BatchCountSolved(ctx context.Context, userIDs []string) (map[string]int, error)
}
