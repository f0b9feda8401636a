package models

import (
	"strings"
	"time"
)

// User is any account: administrators, facilitators and students.
type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName    string       `gorm:"size:128;not null" json:"first_name"`
	LastName     string       `gorm:"size:128" json:"last_name"`
	Role         Role         `gorm:"size:32;not null;index" json:"role"`
	DepartmentID *uint        `gorm:"index" json:"department_id"`
	Department   *Department  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"department,omitempty"`
	Departments  []Department `gorm:"many2many:user_departments" json:"departments,omitempty"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time   `json:"last_login"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
