package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
	"github.com/smpn3pacet/cbt-backend/internal/response"
)

// AnalysisService aggregates persisted results for staff reporting.
// All aggregates are computed over each student's latest result only, so a
// re-attempt replaces its predecessor instead of double-counting.
type AnalysisService struct {
	resultRepo *repository.ResultRepository
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(resultRepo *repository.ResultRepository) *AnalysisService {
	return &AnalysisService{resultRepo: resultRepo}
}

// ExamSummary is the aggregate report for one exam.
type ExamSummary struct {
	Participants   int            `json:"participants"`
	AverageScore   float64        `json:"average_score"`
	HighestScore   int            `json:"highest_score"`
	LowestScore    int            `json:"lowest_score"`
	Disqualified   int            `json:"disqualified"`
	ClassBreakdown []ClassSummary `json:"class_breakdown"`
}

// ClassSummary is the per-class slice of an exam summary.
type ClassSummary struct {
	ClassName    string  `json:"class_name"`
	Participants int     `json:"participants"`
	AverageScore float64 `json:"average_score"`
}

// GetExamSummary computes aggregate statistics for an exam. Disqualified
// attempts count as participants but are excluded from the score aggregates.
func (s *AnalysisService) GetExamSummary(ctx context.Context, examID uuid.UUID) (*ExamSummary, error) {
	results, err := s.resultRepo.ListLatestByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	summary := &ExamSummary{ClassBreakdown: []ClassSummary{}}
	if len(results) == 0 {
		return summary, nil
	}

	summary.Participants = len(results)

	type classAgg struct {
		count int
		sum   int
	}
	classes := make(map[string]*classAgg)
	classOrder := []string{}

	scored := 0
	sum := 0
	summary.LowestScore = 101

	for _, res := range results {
		if res.IsDisqualified {
			summary.Disqualified++
			continue
		}

		scored++
		sum += res.Score
		if res.Score > summary.HighestScore {
			summary.HighestScore = res.Score
		}
		if res.Score < summary.LowestScore {
			summary.LowestScore = res.Score
		}

		agg, ok := classes[res.StudentClass]
		if !ok {
			agg = &classAgg{}
			classes[res.StudentClass] = agg
			classOrder = append(classOrder, res.StudentClass)
		}
		agg.count++
		agg.sum += res.Score
	}

	if scored > 0 {
		summary.AverageScore = float64(sum) / float64(scored)
	} else {
		summary.LowestScore = 0
	}

	for _, name := range classOrder {
		agg := classes[name]
		summary.ClassBreakdown = append(summary.ClassBreakdown, ClassSummary{
			ClassName:    name,
			Participants: agg.count,
			AverageScore: float64(agg.sum) / float64(agg.count),
		})
	}

	return summary, nil
}

// ListExamResults returns an exam's raw result rows with pagination and an
// optional class filter.
func (s *AnalysisService) ListExamResults(ctx context.Context, examID uuid.UUID, className *string, page, perPage int) ([]model.Result, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	results, total, err := s.resultRepo.ListByExam(ctx, examID, className, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = []model.Result{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return results, pagination, nil
}

// ListStudentResults returns all results of one student, newest first.
func (s *AnalysisService) ListStudentResults(ctx context.Context, studentID int) ([]model.Result, error) {
	results, err := s.resultRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.Result{}
	}
	return results, nil
}
