package repository

import "errors"

// ErrNoActiveAcademicYear indicates no academic year is flagged active.
var ErrNoActiveAcademicYear = errors.New("no active academic year")
