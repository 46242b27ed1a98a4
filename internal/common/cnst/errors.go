package cnst

import "errors"

var (
	// ErrSessionNotFound is returned when a session token is unknown or expired
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound is returned when a username has no account in the directory
	ErrUserNotFound = errors.New("user not found")
	// ErrScholarshipNotFound is returned when a scholarship id is not configured
	ErrScholarshipNotFound = errors.New("scholarship not found")
	// ErrApplicationNotFound is returned when an application has no analysis artifact
	ErrApplicationNotFound = errors.New("application not found")
	// ErrNoReviews is returned when aggregation finds no review records for a scholarship
	ErrNoReviews = errors.New("no review records found")
)
