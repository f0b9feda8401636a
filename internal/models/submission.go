package models

import "time"

// AssessmentSubmission is a student's marked paper for an assessment. One row
// exists per (assessment, student); re-submission overwrites it.
type AssessmentSubmission struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AssessmentID  uint       `gorm:"not null;uniqueIndex:idx_assessment_submission_student" json:"assessment_id"`
	StudentID     uint       `gorm:"not null;uniqueIndex:idx_assessment_submission_student" json:"student_id"`
	Student       User       `gorm:"foreignKey:StudentID" json:"student"`
	MarksObtained *float64   `json:"marks_obtained"`
	MaxMarks      float64    `gorm:"not null" json:"max_marks"`
	FileURL       string     `gorm:"size:512" json:"file_url"`
	FileName      string     `gorm:"size:255" json:"file_name"`
	Verified      bool       `gorm:"not null;default:false;index" json:"verified"`
	VerifiedBy    *uint      `json:"verified_by"`
	VerifiedAt    *time.Time `json:"verified_at"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// View converts the row into the kind-neutral Submission.
func (s AssessmentSubmission) View() Submission {
	return Submission{
		Kind:        SubmissionKindAssessment,
		ID:          s.ID,
		EntityID:    s.AssessmentID,
		StudentID:   s.StudentID,
		Student:     s.Student,
		Obtained:    s.MarksObtained,
		Maximum:     s.MaxMarks,
		FileURL:     s.FileURL,
		FileName:    s.FileName,
		Verified:    s.Verified,
		VerifiedBy:  s.VerifiedBy,
		VerifiedAt:  s.VerifiedAt,
		SubmittedAt: s.SubmittedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ProjectSubmission is a student's scored project. One row exists per
// (project, student); re-submission overwrites it.
type ProjectSubmission struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProjectID   uint       `gorm:"not null;uniqueIndex:idx_project_submission_student" json:"project_id"`
	StudentID   uint       `gorm:"not null;uniqueIndex:idx_project_submission_student" json:"student_id"`
	Student     User       `gorm:"foreignKey:StudentID" json:"student"`
	Score       *float64   `json:"score"`
	MaxScore    float64    `gorm:"not null" json:"max_score"`
	FileURL     string     `gorm:"size:512" json:"file_url"`
	FileName    string     `gorm:"size:255" json:"file_name"`
	Notes       *string    `gorm:"type:text" json:"notes"`
	Verified    bool       `gorm:"not null;default:false;index" json:"verified"`
	VerifiedBy  *uint      `json:"verified_by"`
	VerifiedAt  *time.Time `json:"verified_at"`
	SubmittedAt time.Time  `json:"submitted_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// View converts the row into the kind-neutral Submission.
func (s ProjectSubmission) View() Submission {
	return Submission{
		Kind:        SubmissionKindProject,
		ID:          s.ID,
		EntityID:    s.ProjectID,
		StudentID:   s.StudentID,
		Student:     s.Student,
		Obtained:    s.Score,
		Maximum:     s.MaxScore,
		FileURL:     s.FileURL,
		FileName:    s.FileName,
		Notes:       s.Notes,
		Verified:    s.Verified,
		VerifiedBy:  s.VerifiedBy,
		VerifiedAt:  s.VerifiedAt,
		SubmittedAt: s.SubmittedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Submission is the kind-neutral view over assessment papers and project
// submissions: marks_obtained/max_marks and score/max_score both map onto
// Obtained/Maximum.
type Submission struct {
	Kind        SubmissionKind
	ID          uint
	EntityID    uint
	StudentID   uint
	Student     User
	Obtained    *float64
	Maximum     float64
	FileURL     string
	FileName    string
	Notes       *string
	Verified    bool
	VerifiedBy  *uint
	VerifiedAt  *time.Time
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

func (s Submission) StudentKey() uint   { return s.StudentID }
func (s Submission) Amount() *float64   { return s.Obtained }
func (s Submission) MaxAmount() float64 { return s.Maximum }
func (s Submission) IsVerified() bool   { return s.Verified }
