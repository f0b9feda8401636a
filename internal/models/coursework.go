package models

import (
	"fmt"
	"strings"
	"time"
)

// SubmissionKind distinguishes the two kinds of marked student work.
type SubmissionKind string

const (
	SubmissionKindAssessment SubmissionKind = "assessment"
	SubmissionKindProject    SubmissionKind = "project"
)

// ParseSubmissionKind accepts singular or plural kind names.
func ParseSubmissionKind(value string) (SubmissionKind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(value)), "s") {
	case string(SubmissionKindAssessment):
		return SubmissionKindAssessment, nil
	case string(SubmissionKindProject):
		return SubmissionKindProject, nil
	default:
		return "", fmt.Errorf("unknown submission kind %q", value)
	}
}

// ProjectType enumerates project formats.
type ProjectType string

const (
	ProjectTypeCaseStudy ProjectType = "case_study"
	ProjectTypeSeminar   ProjectType = "seminar"
	ProjectTypeReportage ProjectType = "reportage"
)

// Assessment is an internal assessment (IA) scheduled for a subject.
type Assessment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SubjectID     uint       `gorm:"index;not null" json:"subject_id"`
	Subject       Subject    `json:"subject"`
	Number        int        `gorm:"column:ia_number;not null" json:"ia_number"`
	ScheduledDate time.Time  `gorm:"type:date;not null" json:"scheduled_date"`
	ConductedDate *time.Time `gorm:"type:date" json:"conducted_date"`
	IsCompleted   bool       `gorm:"not null;default:false" json:"is_completed"`
	Notes         *string    `gorm:"type:text" json:"notes"`
	MaxMarks      float64    `gorm:"not null;default:20" json:"max_marks"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Project is a longer piece of coursework with a due date.
type Project struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	SubjectID     uint        `gorm:"index;not null" json:"subject_id"`
	Subject       Subject     `json:"subject"`
	Type          ProjectType `gorm:"size:32;not null" json:"type"`
	Title         string      `gorm:"size:255;not null" json:"title"`
	Description   *string     `gorm:"type:text" json:"description"`
	AssignedDate  time.Time   `gorm:"type:date;not null" json:"assigned_date"`
	DueDate       time.Time   `gorm:"type:date;not null" json:"due_date"`
	IsCompleted   bool        `gorm:"not null;default:false" json:"is_completed"`
	CompletedDate *time.Time  `gorm:"type:date" json:"completed_date"`
	MaxScore      float64     `gorm:"not null;default:100" json:"max_score"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Coursework is the kind-neutral view over assessments and projects.
type Coursework struct {
	Kind          SubmissionKind `json:"kind"`
	ID            uint           `json:"id"`
	SubjectID     uint           `json:"subject_id"`
	SubjectName   string         `json:"subject_name"`
	DepartmentID  uint           `json:"department_id"`
	FacilitatorID uint           `json:"facilitator_id"`
	Title         string         `json:"title"`
	ScheduledOn   time.Time      `json:"scheduled_on"`
	IsCompleted   bool           `json:"is_completed"`
	CompletedOn   *time.Time     `json:"completed_on"`
	MaxAmount     float64        `json:"max_amount"`
}

// View converts the assessment into Coursework.
func (a Assessment) View() Coursework {
	return Coursework{
		Kind:          SubmissionKindAssessment,
		ID:            a.ID,
		SubjectID:     a.SubjectID,
		SubjectName:   a.Subject.Name,
		DepartmentID:  a.Subject.DepartmentID,
		FacilitatorID: a.Subject.FacilitatorID,
		Title:         fmt.Sprintf("IA %d", a.Number),
		ScheduledOn:   a.ScheduledDate,
		IsCompleted:   a.IsCompleted,
		CompletedOn:   a.ConductedDate,
		MaxAmount:     a.MaxMarks,
	}
}

// View converts the project into Coursework.
func (p Project) View() Coursework {
	return Coursework{
		Kind:          SubmissionKindProject,
		ID:            p.ID,
		SubjectID:     p.SubjectID,
		SubjectName:   p.Subject.Name,
		DepartmentID:  p.Subject.DepartmentID,
		FacilitatorID: p.Subject.FacilitatorID,
		Title:         p.Title,
		ScheduledOn:   p.DueDate,
		IsCompleted:   p.IsCompleted,
		CompletedOn:   p.CompletedDate,
		MaxAmount:     p.MaxScore,
	}
}
