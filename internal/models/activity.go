package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an audit entry for a state-changing action.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"index;not null" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	IPAddress  string            `gorm:"size:64" json:"ip_address"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Announcement is a notice shown to everyone or to one department/subject.
type Announcement struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	DepartmentID *uint      `gorm:"index" json:"department_id"`
	SubjectID    *uint      `gorm:"index" json:"subject_id"`
	CreatedBy    uint       `gorm:"not null" json:"created_by"`
	Author       User       `gorm:"foreignKey:CreatedBy" json:"author"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// VisibleAt reports whether the announcement should be listed at t.
func (a Announcement) VisibleAt(t time.Time) bool {
	if !a.IsActive {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(t)
}

// All lists every model managed by migrations.
func All() []interface{} {
	return []interface{}{
		&Department{},
		&AcademicYear{},
		&User{},
		&Subject{},
		&Portion{},
		&Assessment{},
		&Project{},
		&AssessmentSubmission{},
		&ProjectSubmission{},
		&Announcement{},
		&ActivityLog{},
	}
}
