package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attempt(subject string, attempts, timeSpent, hints int, completed bool) ProblemAttempt {
	return ProblemAttempt{
		Subject:          subject,
		Attempts:         attempts,
		TimeSpentSeconds: timeSpent,
		HintsUsed:        hints,
		Completed:        completed,
	}
}

func TestSummarizePerformance_Averages(t *testing.T) {
	report := SummarizePerformance([]ProblemAttempt{
		attempt("algebra", 1, 100, 0, true),
		attempt("algebra", 3, 200, 2, false),
	})

	perf, ok := report.Subjects["algebra"]
	require.True(t, ok)
	assert.Equal(t, 2, perf.TotalProblems)
	assert.InDelta(t, 2.0, perf.AvgAttempts, 1e-9)
	assert.InDelta(t, 150.0, perf.AvgTimeSeconds, 1e-9)
	assert.InDelta(t, 1.0, perf.AvgHints, 1e-9)
	assert.InDelta(t, 0.5, perf.CompletionRate, 1e-9)
}

func TestSummarizePerformance_ClassifiesEasy(t *testing.T) {
	var attempts []ProblemAttempt
	for i := 0; i < 5; i++ {
		attempts = append(attempts, attempt("arithmetic", 1, 60, 0, true))
	}
	report := SummarizePerformance(attempts)

	assert.Equal(t, ClassificationEasy, report.ClassificationFor("arithmetic"))
}

func TestSummarizePerformance_ClassifiesHard(t *testing.T) {
	tests := []struct {
		name    string
		attempt ProblemAttempt
	}{
		{"too many attempts", attempt("algebra", 5, 100, 0, true)},
		{"too slow", attempt("algebra", 1, 1000, 0, true)},
		{"too many hints", attempt("algebra", 1, 100, 4, true)},
		{"low completion", attempt("algebra", 1, 100, 0, false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := SummarizePerformance([]ProblemAttempt{tt.attempt})
			assert.Equal(t, ClassificationHard, report.ClassificationFor("algebra"))
		})
	}
}

func TestSummarizePerformance_ClassifiesMedium(t *testing.T) {
	// Between the easy and hard envelopes on every axis.
	report := SummarizePerformance([]ProblemAttempt{
		attempt("geometry", 3, 400, 2, true),
		attempt("geometry", 3, 400, 2, true),
		attempt("geometry", 3, 400, 2, false),
	})

	assert.Equal(t, ClassificationMedium, report.ClassificationFor("geometry"))
}

func TestClassificationFor_NoSignalDefaultsToMedium(t *testing.T) {
	report := SummarizePerformance(nil)
	assert.Equal(t, ClassificationMedium, report.ClassificationFor("calculus"))
}

func TestWeakAreas_SortedByHintsThenTime(t *testing.T) {
	report := SummarizePerformance([]ProblemAttempt{
		attempt("algebra", 5, 100, 1, false),
		attempt("geometry", 5, 100, 4, false),
		attempt("fractions", 5, 900, 1, false),
	})

	weak := report.WeakAreas()
	require.Len(t, weak, 3)
	assert.Equal(t, "geometry", weak[0].Subject, "most hints first")
	assert.Equal(t, "fractions", weak[1].Subject, "more time breaks the hint tie")
	assert.Equal(t, "algebra", weak[2].Subject)
}

func TestStrongAreas_Alphabetical(t *testing.T) {
	report := SummarizePerformance([]ProblemAttempt{
		attempt("statistics", 1, 60, 0, true),
		attempt("arithmetic", 1, 60, 0, true),
	})

	strong := report.StrongAreas()
	require.Len(t, strong, 2)
	assert.Equal(t, "arithmetic", strong[0].Subject)
	assert.Equal(t, "statistics", strong[1].Subject)
}

func TestUnseenSubjects_CatalogOrder(t *testing.T) {
	report := SummarizePerformance([]ProblemAttempt{
		attempt("algebra", 1, 60, 0, true),
		attempt("calculus", 1, 60, 0, true),
	})

	unseen := report.UnseenSubjects()
	assert.Equal(t, []string{"arithmetic", "fractions", "geometry", "word_problems", "statistics"}, unseen)
}
