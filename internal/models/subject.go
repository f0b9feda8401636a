package models

import "time"

// Subject is a course taught by one facilitator in one department and year.
type Subject struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"size:255;not null" json:"name"`
	Code           string       `gorm:"size:32;not null" json:"code"`
	DepartmentID   uint         `gorm:"index;not null" json:"department_id"`
	AcademicYearID uint         `gorm:"index;not null" json:"academic_year_id"`
	FacilitatorID  uint         `gorm:"index;not null" json:"facilitator_id"`
	Department     Department   `json:"department"`
	AcademicYear   AcademicYear `json:"-"`
	Facilitator    User         `gorm:"foreignKey:FacilitatorID" json:"facilitator"`
	Portions       []Portion    `json:"portions"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Portion is one curriculum unit of a subject, planned for a day and ticked
// off by the facilitator.
type Portion struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SubjectID     uint       `gorm:"index;not null" json:"subject_id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Description   *string    `gorm:"type:text" json:"description"`
	SequenceOrder int        `gorm:"not null;default:0" json:"sequence_order"`
	PlannedDate   *time.Time `gorm:"type:date" json:"planned_date"`
	CompletedDate *time.Time `gorm:"type:date" json:"completed_date"`
	IsCompleted   bool       `gorm:"not null;default:false" json:"is_completed"`
	Notes         *string    `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Completed reports whether the portion has been marked done.
func (p Portion) Completed() bool {
	return p.IsCompleted
}

// PlannedOn returns the planned date, or false when it is missing.
func (p Portion) PlannedOn() (time.Time, bool) {
	if p.PlannedDate == nil || p.PlannedDate.IsZero() {
		return time.Time{}, false
	}
	return *p.PlannedDate, true
}
