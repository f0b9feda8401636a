package dto

import (
	"time"

	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/progress"
)

// PortionListRequest filters the portions page.
type PortionListRequest struct {
	SubjectID    *uint  `query:"subject_id"`
	DepartmentID *uint  `query:"department_id"`
	Status       string `query:"status" validate:"omitempty,oneof=completed overdue pending due-today"`
	Search       string `query:"search" validate:"omitempty,max=120"`
}

// PortionCompletionRequest toggles a portion.
type PortionCompletionRequest struct {
	Completed bool    `json:"completed"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

// PortionCreateRequest appends a portion to a subject.
type PortionCreateRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=255"`
	Description   *string `json:"description" validate:"omitempty,max=4000"`
	SequenceOrder int     `json:"sequence_order" validate:"gte=0"`
	PlannedDate   string  `json:"planned_date" validate:"required,datetime=2006-01-02"`
}

// SubjectCreateRequest registers a subject. The active academic year is used
// when AcademicYearID is omitted.
type SubjectCreateRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=255"`
	Code           string `json:"code" validate:"required,min=2,max=32"`
	DepartmentID   uint   `json:"department_id" validate:"required"`
	FacilitatorID  uint   `json:"facilitator_id" validate:"required"`
	AcademicYearID *uint  `json:"academic_year_id"`
}

// SubjectResponse serializes a subject without its portions.
type SubjectResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	DepartmentID   uint   `json:"department_id"`
	AcademicYearID uint   `json:"academic_year_id"`
	FacilitatorID  uint   `json:"facilitator_id"`
}

// PortionResponse serializes a portion together with its classification.
type PortionResponse struct {
	ID            uint       `json:"id"`
	SubjectID     uint       `json:"subject_id"`
	SubjectName   string     `json:"subject_name,omitempty"`
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	SequenceOrder int        `json:"sequence_order"`
	PlannedDate   *time.Time `json:"planned_date"`
	CompletedDate *time.Time `json:"completed_date"`
	IsCompleted   bool       `json:"is_completed"`
	Notes         *string    `json:"notes"`
	Status        string     `json:"status"`
}

// SubjectProgress is the completion summary of one subject.
type SubjectProgress struct {
	SubjectID       uint   `json:"subject_id"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	DepartmentID    uint   `json:"department_id"`
	DepartmentName  string `json:"department_name"`
	FacilitatorID   uint   `json:"facilitator_id"`
	FacilitatorName string `json:"facilitator_name"`
	progress.Summary
	Pending int `json:"pending"`
}

// DepartmentProgress is the completion summary across a department's subjects.
type DepartmentProgress struct {
	DepartmentID     uint   `json:"department_id"`
	Name             string `json:"name"`
	Code             string `json:"code"`
	SubjectCount     int    `json:"subject_count"`
	FacilitatorCount int    `json:"facilitator_count"`
	progress.Summary
}

// FacilitatorProgress is the completion summary across a facilitator's subjects.
type FacilitatorProgress struct {
	FacilitatorID uint   `json:"facilitator_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	SubjectCount  int    `json:"subject_count"`
	progress.Summary
	Pending int `json:"pending"`
}

// DeadlineResponse is one upcoming portion.
type DeadlineResponse struct {
	PortionID   uint      `json:"portion_id"`
	PortionName string    `json:"portion_name"`
	SubjectID   uint      `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	PlannedDate time.Time `json:"planned_date"`
	DaysUntil   int       `json:"days_until"`
	Label       string    `json:"label"`
}

// OverdueResponse is one portion past its planned date.
type OverdueResponse struct {
	PortionID       uint      `json:"portion_id"`
	PortionName     string    `json:"portion_name"`
	SubjectID       uint      `json:"subject_id"`
	SubjectName     string    `json:"subject_name"`
	FacilitatorName string    `json:"facilitator_name"`
	PlannedDate     time.Time `json:"planned_date"`
	DaysOverdue     int       `json:"days_overdue"`
}

// InstitutionDashboardResponse backs the administrator dashboard.
type InstitutionDashboardResponse struct {
	AcademicYear     *AcademicYearResponse `json:"academic_year"`
	DepartmentCount  int                   `json:"department_count"`
	FacilitatorCount int                   `json:"facilitator_count"`
	SubjectCount     int                   `json:"subject_count"`
	Overall          progress.Summary      `json:"overall"`
	Departments      []DepartmentProgress  `json:"departments"`
	Facilitators     []FacilitatorProgress `json:"facilitators"`
	Overdue          []OverdueResponse     `json:"overdue"`
}

// FacilitatorDashboardResponse backs the facilitator dashboard.
type FacilitatorDashboardResponse struct {
	AcademicYear *AcademicYearResponse `json:"academic_year"`
	Overall      progress.Summary      `json:"overall"`
	Pending      int                   `json:"pending"`
	Subjects     []SubjectProgress     `json:"subjects"`
	Upcoming     []DeadlineResponse    `json:"upcoming"`
}

// StudentDashboardResponse backs the student dashboard.
type StudentDashboardResponse struct {
	AcademicYear *AcademicYearResponse `json:"academic_year"`
	Overall      progress.Summary      `json:"overall"`
	Subjects     []SubjectProgress     `json:"subjects"`
	Upcoming     []DeadlineResponse    `json:"upcoming"`
}

// NewSubjectResponse converts a subject model.
func NewSubjectResponse(subject models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:             subject.ID,
		Name:           subject.Name,
		Code:           subject.Code,
		DepartmentID:   subject.DepartmentID,
		AcademicYearID: subject.AcademicYearID,
		FacilitatorID:  subject.FacilitatorID,
	}
}

// NewPortionResponse converts a portion and attaches its status.
func NewPortionResponse(portion models.Portion, subjectName string, status progress.Status) PortionResponse {
	return PortionResponse{
		ID:            portion.ID,
		SubjectID:     portion.SubjectID,
		SubjectName:   subjectName,
		Name:          portion.Name,
		Description:   portion.Description,
		SequenceOrder: portion.SequenceOrder,
		PlannedDate:   portion.PlannedDate,
		CompletedDate: portion.CompletedDate,
		IsCompleted:   portion.IsCompleted,
		Notes:         portion.Notes,
		Status:        string(status),
	}
}
