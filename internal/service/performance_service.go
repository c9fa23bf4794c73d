package service

import (
	"context"

	"math-tutor/internal/domain"
	"math-tutor/internal/dto"
)

// PerformanceService exposes the per-subject performance projection. The
// summary is recomputed from raw attempt rows on every request; nothing here
// is cached or persisted.
type PerformanceService interface {
	GetAnalysis(ctx context.Context, key domain.ProfileKey) (*dto.PerformanceAnalysisResponse, error)
}

type performanceService struct {
	attemptRepo domain.AttemptRepository
}

// NewPerformanceService creates a new instance of PerformanceService.
func NewPerformanceService(attemptRepo domain.AttemptRepository) PerformanceService {
	return &performanceService{attemptRepo: attemptRepo}
}

// GetAnalysis implements PerformanceService. The suggested focus is the
// weakest subject when one exists, otherwise the first subject the user has
// never tried.
func (s *performanceService) GetAnalysis(ctx context.Context, key domain.ProfileKey) (*dto.PerformanceAnalysisResponse, error) {
	attempts, err := s.attemptRepo.GetHistory(ctx, key, domain.HistoryWindow{})
	if err != nil {
		return nil, domain.NewInternalError("Failed to get attempt history", err)
	}

	report := domain.SummarizePerformance(attempts)
	weak := report.WeakAreas()
	strong := report.StrongAreas()

	suggested := ""
	if len(weak) > 0 {
		suggested = weak[0].Subject
	} else if unseen := report.UnseenSubjects(); len(unseen) > 0 {
		suggested = unseen[0]
	}

	return &dto.PerformanceAnalysisResponse{
		WeakAreas:      toPerformanceItems(weak),
		StrongAreas:    toPerformanceItems(strong),
		SuggestedFocus: suggested,
	}, nil
}

func toPerformanceItems(perfs []domain.SubjectPerformance) []dto.SubjectPerformanceItem {
	items := make([]dto.SubjectPerformanceItem, 0, len(perfs))
	for _, p := range perfs {
		items = append(items, dto.SubjectPerformanceItem{
			Subject:        p.Subject,
			TotalProblems:  p.TotalProblems,
			AvgAttempts:    p.AvgAttempts,
			AvgTimeSeconds: p.AvgTimeSeconds,
			AvgHints:       p.AvgHints,
			CompletionRate: p.CompletionRate,
			Classification: p.Classification,
		})
	}
	return items
}
