package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

// PaginationMeta describes pagination state for list endpoints.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// DepartmentRequest creates or updates a department.
type DepartmentRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=255"`
	Code  string `json:"code" validate:"required,min=2,max=32"`
	HodID *uint  `json:"hod_id"`
}

// DepartmentResponse serializes a department with its subject count in the
// active academic year.
type DepartmentResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	HodID        *uint     `json:"hod_id"`
	SubjectCount int64     `json:"subject_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// AcademicYearCreateRequest registers an academic year.
type AcademicYearCreateRequest struct {
	Name      string `json:"name" validate:"required,min=4,max=64"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Activate  bool   `json:"activate"`
}

// AcademicYearResponse serializes an academic year.
type AcademicYearResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
}

// UserListRequest filters the user directory.
type UserListRequest struct {
	Role         string `query:"role" validate:"omitempty,oneof=super_admin admin facilitator student"`
	DepartmentID *uint  `query:"department_id"`
}

// UserCreateRequest registers a user. For facilitators the first entry of
// DepartmentIDs becomes the primary department.
type UserCreateRequest struct {
	Email         string `json:"email" validate:"required,email,max=255"`
	FirstName     string `json:"first_name" validate:"required,min=1,max=128"`
	LastName      string `json:"last_name" validate:"omitempty,max=128"`
	Role          string `json:"role" validate:"required,oneof=super_admin admin facilitator student"`
	DepartmentIDs []uint `json:"department_ids" validate:"omitempty,dive,required"`
}

// UserRoleRequest changes a user's role.
type UserRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// ProfileUpdateRequest changes the caller's own display name.
type ProfileUpdateRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=128"`
	LastName  string `json:"last_name" validate:"omitempty,max=128"`
}

// UserDepartment is a compact department reference.
type UserDepartment struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// UserResponse serializes a user with the primary and linked departments.
type UserResponse struct {
	ID          uint             `json:"id"`
	Email       string           `json:"email"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	FullName    string           `json:"full_name"`
	Role        string           `json:"role"`
	IsActive    bool             `json:"is_active"`
	Department  *UserDepartment  `json:"department"`
	Departments []UserDepartment `json:"departments"`
	LastLogin   *time.Time       `json:"last_login"`
	CreatedAt   time.Time        `json:"created_at"`
}

// AnnouncementListRequest paginates visible announcements.
type AnnouncementListRequest struct {
	Page         int   `query:"page" validate:"omitempty,min=1"`
	PageSize     int   `query:"page_size" validate:"omitempty,min=1,max=100"`
	DepartmentID *uint `query:"department_id"`
}

// AnnouncementCreateRequest publishes an announcement.
type AnnouncementCreateRequest struct {
	Title        string     `json:"title" validate:"required,min=3,max=255"`
	Content      string     `json:"content" validate:"required,min=1,max=10000"`
	DepartmentID *uint      `json:"department_id"`
	SubjectID    *uint      `json:"subject_id"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// AnnouncementResponse serializes an announcement.
type AnnouncementResponse struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	DepartmentID *uint      `json:"department_id"`
	SubjectID    *uint      `json:"subject_id"`
	AuthorID     uint       `json:"author_id"`
	AuthorName   string     `json:"author_name"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AnnouncementListResponse contains paginated announcements.
type AnnouncementListResponse struct {
	Items      []AnnouncementResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
}

// ActivityListRequest defines filters for retrieving activity logs.
type ActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
	EntityID   uint
	SinceDays  int
}

// ActivityResponse serializes activity log entries.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListResponse wraps paginated activity logs.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// ActionCountResponse is one row of the audit summary.
type ActionCountResponse struct {
	Action string `json:"action"`
	Total  int64  `json:"total"`
}

// ActivitySummaryResponse counts audit entries per action over a window.
type ActivitySummaryResponse struct {
	Since   time.Time             `json:"since"`
	Days    int                   `json:"days"`
	Total   int64                 `json:"total"`
	Actions []ActionCountResponse `json:"actions"`
}

// NewDepartmentResponse converts a department model.
func NewDepartmentResponse(department models.Department, subjectCount int64) DepartmentResponse {
	return DepartmentResponse{
		ID:           department.ID,
		Name:         department.Name,
		Code:         department.Code,
		HodID:        department.HodID,
		SubjectCount: subjectCount,
		CreatedAt:    department.CreatedAt,
	}
}

// NewAcademicYearResponse converts an academic year model.
func NewAcademicYearResponse(year models.AcademicYear) AcademicYearResponse {
	return AcademicYearResponse{
		ID:        year.ID,
		Name:      year.Name,
		StartDate: year.StartDate,
		EndDate:   year.EndDate,
		IsActive:  year.IsActive,
	}
}

// NewUserResponse converts a user model.
func NewUserResponse(user models.User) UserResponse {
	response := UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		Role:        user.Role.String(),
		IsActive:    user.IsActive,
		Departments: make([]UserDepartment, 0, len(user.Departments)),
		LastLogin:   user.LastLogin,
		CreatedAt:   user.CreatedAt,
	}
	if user.Department != nil {
		response.Department = &UserDepartment{ID: user.Department.ID, Name: user.Department.Name, Code: user.Department.Code}
	}
	for _, department := range user.Departments {
		response.Departments = append(response.Departments, UserDepartment{ID: department.ID, Name: department.Name, Code: department.Code})
	}
	return response
}

// NewAnnouncementResponse converts an announcement model.
func NewAnnouncementResponse(announcement models.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:           announcement.ID,
		Title:        announcement.Title,
		Content:      announcement.Content,
		DepartmentID: announcement.DepartmentID,
		SubjectID:    announcement.SubjectID,
		AuthorID:     announcement.CreatedBy,
		AuthorName:   announcement.Author.FullName(),
		ExpiresAt:    announcement.ExpiresAt,
		CreatedAt:    announcement.CreatedAt,
	}
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// NewActivityResponse converts a model into an activity DTO.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadataFromJSON(entry.Metadata),
		IPAddress:  entry.IPAddress,
		CreatedAt:  entry.CreatedAt,
	}
}
