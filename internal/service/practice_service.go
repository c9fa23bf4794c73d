package service

import (
	"context"
	"strings"

	"math-tutor/internal/domain"
	"math-tutor/internal/dto"
)

// Reasons shown next to each recommended problem.
const (
	reasonWeakArea   = "Extra practice on a subject you have found difficult"
	reasonStrongArea = "A harder take on a subject you have mastered"
	reasonChallenge  = "Top-difficulty problem to stretch your skills"
	reasonNewSubject = "A subject you have not tried yet"
	reasonKeepSharp  = "Mixed practice to keep your skills sharp"
)

// PracticeService generates adaptive practice sessions from the performance
// summary.
type PracticeService interface {
	GenerateSession(ctx context.Context, key domain.ProfileKey, sessionType string, count int) (*dto.PracticeSessionResponse, error)
}

type practiceService struct {
	attemptRepo domain.AttemptRepository
}

// NewPracticeService creates a new instance of PracticeService.
func NewPracticeService(attemptRepo domain.AttemptRepository) PracticeService {
	return &practiceService{attemptRepo: attemptRepo}
}

// GenerateSession implements PracticeService. Unknown session types fail fast;
// an out-of-range count is clamped into [1, 10] rather than rejected.
func (s *practiceService) GenerateSession(ctx context.Context, key domain.ProfileKey, sessionType string, count int) (*dto.PracticeSessionResponse, error) {
	sessionType = strings.ToLower(sessionType)
	if !domain.IsValidSessionType(sessionType) {
		return nil, domain.NewInvalidSessionTypeError(sessionType)
	}
	count = domain.ClampSessionCount(count)

	attempts, err := s.attemptRepo.GetHistory(ctx, key, domain.HistoryWindow{})
	if err != nil {
		return nil, domain.NewInternalError("Failed to get attempt history", err)
	}
	report := domain.SummarizePerformance(attempts)

	candidates := buildCandidates(sessionType, report)
	items := takeItems(candidates, count)

	resp := &dto.PracticeSessionResponse{
		SessionType: sessionType,
		Items:       make([]dto.PracticeItemResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.PracticeItemResponse{
			Subject:     item.Subject,
			Difficulty:  item.Difficulty,
			Reason:      item.Reason,
			EstimatedXP: item.EstimatedXP,
		})
	}
	return resp, nil
}

// buildCandidates orders every eligible (subject, difficulty) candidate for
// the session type, best pick first.
func buildCandidates(sessionType string, report domain.PerformanceReport) []domain.PracticeItem {
	var candidates []domain.PracticeItem
	used := make(map[string]bool)

	add := func(subject, difficulty, reason string) {
		candidates = append(candidates, newPracticeItem(subject, difficulty, reason))
		used[subject] = true
	}

	switch sessionType {
	case domain.SessionWeakness:
		// Weak areas first, the most hint- and time-hungry leading; the rest of
		// the catalog fills out short pools.
		for _, perf := range report.WeakAreas() {
			add(perf.Subject, domain.PracticeDifficultyFor(perf.Classification), reasonWeakArea)
		}
		for _, subject := range domain.SubjectCatalog {
			if !used[subject] {
				add(subject, domain.PracticeDifficultyFor(report.ClassificationFor(subject)), reasonKeepSharp)
			}
		}

	case domain.SessionStrength:
		// Strong areas escalate one tier above the user's band to build mastery
		// rather than repeat easy wins.
		for _, perf := range report.StrongAreas() {
			add(perf.Subject, domain.EscalateDifficulty(domain.PracticeDifficultyFor(perf.Classification)), reasonStrongArea)
		}
		for _, subject := range domain.SubjectCatalog {
			if !used[subject] {
				add(subject, domain.EscalateDifficulty(domain.PracticeDifficultyFor(report.ClassificationFor(subject))), reasonKeepSharp)
			}
		}

	case domain.SessionChallenge:
		for _, subject := range domain.SubjectCatalog {
			add(subject, domain.HardestDifficulty(), reasonChallenge)
		}

	case domain.SessionBalanced:
		weak := report.WeakAreas()
		strong := report.StrongAreas()
		unseen := report.UnseenSubjects()
		for i := 0; i < len(weak) || i < len(strong) || i < len(unseen); i++ {
			if i < len(weak) {
				add(weak[i].Subject, domain.PracticeDifficultyFor(weak[i].Classification), reasonWeakArea)
			}
			if i < len(strong) {
				add(strong[i].Subject, domain.EscalateDifficulty(domain.PracticeDifficultyFor(strong[i].Classification)), reasonStrongArea)
			}
			if i < len(unseen) {
				add(unseen[i], domain.DifficultyMiddle, reasonNewSubject)
			}
		}
		for _, subject := range domain.SubjectCatalog {
			if !used[subject] {
				add(subject, domain.PracticeDifficultyFor(report.ClassificationFor(subject)), reasonKeepSharp)
			}
		}
	}

	return candidates
}

// takeItems fills the session from the ordered candidates. Duplicate
// (subject, difficulty) pairs are skipped while distinct ones remain; once the
// distinct pool is exhausted the session wraps around and repeats are allowed.
func takeItems(candidates []domain.PracticeItem, count int) []domain.PracticeItem {
	if len(candidates) == 0 {
		return []domain.PracticeItem{}
	}

	seen := make(map[[2]string]bool)
	distinct := make([]domain.PracticeItem, 0, len(candidates))
	for _, c := range candidates {
		pair := [2]string{c.Subject, c.Difficulty}
		if !seen[pair] {
			seen[pair] = true
			distinct = append(distinct, c)
		}
	}

	items := make([]domain.PracticeItem, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, distinct[i%len(distinct)])
	}
	return items
}

func newPracticeItem(subject, difficulty, reason string) domain.PracticeItem {
	return domain.PracticeItem{
		Subject:     subject,
		Difficulty:  difficulty,
		Reason:      reason,
		EstimatedXP: domain.ProblemAward(difficulty, 0),
	}
}
