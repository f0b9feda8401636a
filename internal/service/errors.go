package service

import "errors"

var (
	// ErrPortionNotFound indicates the portion does not exist.
	ErrPortionNotFound = errors.New("portion not found")
	// ErrPortionForbidden indicates the actor does not own the portion's subject.
	ErrPortionForbidden = errors.New("portion belongs to another facilitator")
	// ErrSubjectNotFound indicates the subject does not exist.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrCourseworkNotFound indicates the assessment or project does not exist.
	ErrCourseworkNotFound = errors.New("coursework not found")
	// ErrCourseworkForbidden indicates coursework of a subject the actor does not teach.
	ErrCourseworkForbidden = errors.New("coursework belongs to another facilitator")
	// ErrInvalidCoursework indicates a create payload missing kind-specific fields.
	ErrInvalidCoursework = errors.New("invalid coursework payload")
	// ErrAmountExceedsMax indicates marks above the maximum for the entity.
	ErrAmountExceedsMax = errors.New("amount exceeds maximum")
	// ErrDepartmentNotFound indicates the department does not exist.
	ErrDepartmentNotFound = errors.New("department not found")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidKind indicates an unknown submission kind.
	ErrInvalidKind = errors.New("invalid submission kind")
	// ErrUnsupportedFileType indicates an upload outside the accepted formats.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrAcademicYearNotFound indicates the academic year does not exist or none is active.
	ErrAcademicYearNotFound = errors.New("academic year not found")
	// ErrAnnouncementNotFound indicates the announcement does not exist.
	ErrAnnouncementNotFound = errors.New("announcement not found")
	// ErrFileRequired indicates a submission without an attached file.
	ErrFileRequired = errors.New("submission file is required")
	// ErrInvalidDateRange indicates an end date before the start date.
	ErrInvalidDateRange = errors.New("end date must not precede start date")
	// ErrNotesNotAccepted indicates notes on an assessment submission; only projects keep them.
	ErrNotesNotAccepted = errors.New("notes are only accepted on project submissions")
	// ErrFirstNameRequired indicates a profile update with a blank first name.
	ErrFirstNameRequired = errors.New("first name is required")
	// ErrEntityTypeRequired indicates an audit timeline request without an entity type.
	ErrEntityTypeRequired = errors.New("entity type is required")
)
