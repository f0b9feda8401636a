package dto

import (
	"math"
	"time"

	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/progress"
)

// CourseworkListRequest filters assessments or projects.
type CourseworkListRequest struct {
	SubjectID    *uint `query:"subject_id"`
	DepartmentID *uint `query:"department_id"`
}

// CourseworkCreateRequest creates an assessment or a project. ScheduledDate is
// the assessment date or the project due date.
type CourseworkCreateRequest struct {
	SubjectID     uint     `json:"subject_id" validate:"required"`
	Number        int      `json:"ia_number" validate:"omitempty,min=1,max=10"`
	Title         string   `json:"title" validate:"omitempty,max=255"`
	Type          string   `json:"type" validate:"omitempty,oneof=case_study seminar reportage"`
	Description   *string  `json:"description" validate:"omitempty,max=4000"`
	ScheduledDate string   `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	AssignedDate  string   `json:"assigned_date" validate:"omitempty,datetime=2006-01-02"`
	MaxAmount     *float64 `json:"max_amount" validate:"omitempty,gt=0"`
}

// SubmissionUpsertRequest carries the form fields of a student submission.
type SubmissionUpsertRequest struct {
	Amount *float64 `form:"amount" validate:"omitempty,gte=0"`
	Notes  *string  `form:"notes" validate:"omitempty,max=2000"`
}

// SubmissionVerifyRequest records a facilitator's verification.
type SubmissionVerifyRequest struct {
	Verified bool     `json:"verified"`
	Amount   *float64 `json:"amount" validate:"omitempty,gte=0"`
}

// SubmissionListRequest filters submissions of one kind.
type SubmissionListRequest struct {
	EntityID  *uint `query:"entity_id"`
	StudentID *uint `query:"student_id"`
}

// SubmissionResponse serializes either kind of submission.
type SubmissionResponse struct {
	ID          uint       `json:"id"`
	Kind        string     `json:"kind"`
	EntityID    uint       `json:"entity_id"`
	StudentID   uint       `json:"student_id"`
	StudentName string     `json:"student_name"`
	Amount      *float64   `json:"amount"`
	MaxAmount   float64    `json:"max_amount"`
	FileURL     string     `json:"file_url"`
	FileName    string     `json:"file_name"`
	Notes       *string    `json:"notes,omitempty"`
	Verified    bool       `json:"verified"`
	VerifiedBy  *uint      `json:"verified_by"`
	VerifiedAt  *time.Time `json:"verified_at"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// LeaderboardEntry is one ranked student.
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	StudentID   uint    `json:"student_id"`
	StudentName string  `json:"student_name"`
	Total       float64 `json:"total"`
	MaxPossible float64 `json:"max_possible"`
	Percentage  float64 `json:"percentage"`
	Count       int     `json:"count"`
}

// LeaderboardResponse wraps the standings of one submission kind.
type LeaderboardResponse struct {
	Kind    string             `json:"kind"`
	Entries []LeaderboardEntry `json:"entries"`
}

// NewSubmissionResponse converts the kind-neutral submission view.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          submission.ID,
		Kind:        string(submission.Kind),
		EntityID:    submission.EntityID,
		StudentID:   submission.StudentID,
		StudentName: submission.Student.FullName(),
		Amount:      submission.Obtained,
		MaxAmount:   submission.Maximum,
		FileURL:     submission.FileURL,
		FileName:    submission.FileName,
		Notes:       submission.Notes,
		Verified:    submission.Verified,
		VerifiedBy:  submission.VerifiedBy,
		VerifiedAt:  submission.VerifiedAt,
		SubmittedAt: submission.SubmittedAt,
	}
}

// NewSubmissionResponseSlice converts a list of submissions.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		out = append(out, NewSubmissionResponse(submission))
	}
	return out
}

// NewLeaderboardEntry converts a standing. The percentage is rounded to one
// decimal place for display; ranking already happened on the exact value.
func NewLeaderboardEntry(standing progress.Standing, studentName string) LeaderboardEntry {
	return LeaderboardEntry{
		Rank:        standing.Rank,
		StudentID:   standing.StudentID,
		StudentName: studentName,
		Total:       standing.Total,
		MaxPossible: standing.MaxPossible,
		Percentage:  math.Round(standing.Percentage*10) / 10,
		Count:       standing.Count,
	}
}
