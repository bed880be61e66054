package service

import "errors"

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email or username already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrInvalidRole          = errors.New("role must be coach or athlete")

	ErrUserNotFound     = errors.New("user not found")
	ErrEmptySearchQuery = errors.New("search query cannot be empty")

	ErrSelfRequest          = errors.New("cannot send a request to yourself")
	ErrSameRole             = errors.New("requests connect a coach with an athlete")
	ErrAlreadyConnected     = errors.New("users are already connected")
	ErrRequestAlreadySent   = errors.New("request already sent")
	ErrRequestNotFound      = errors.New("no pending request from this user")
	ErrNotConnected         = errors.New("users are not connected")
	ErrCoachOnly            = errors.New("only coaches can perform this action")
	ErrAthleteOnly          = errors.New("only athletes can perform this action")

	ErrBlockNotFound       = errors.New("block not found")
	ErrTemplateNotFound    = errors.New("template not found")
	ErrWeekNotFound        = errors.New("week not found")
	ErrDayNotFound         = errors.New("day not found")
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrSetNotFound         = errors.New("set not found")
	ErrProgramAccessDenied = errors.New("access denied to this program")
	ErrCrossProgramMove    = errors.New("target week belongs to another program")
	ErrInvalidOrder        = errors.New("order must list every exercise of the day exactly once")
	ErrNotABlock           = errors.New("only block sets can be logged")

	ErrMovementNotFound     = errors.New("movement not found")
	ErrMovementAccessDenied = errors.New("access denied to modify or delete this movement")

	ErrInvalidContentType       = errors.New("invalid or missing video content type")
	ErrUploadURLError           = errors.New("failed to generate upload URL")
	ErrDownloadURLError         = errors.New("failed to generate download URL")
	ErrUploadNotFound           = errors.New("no video uploaded for this set")
	ErrUploadObjectMissing      = errors.New("uploaded object not found in storage")
	ErrUploadKeyMismatch        = errors.New("object key does not belong to this set")
	ErrUploadConfirmationFailed = errors.New("failed to confirm upload")
	ErrMediaDisabled            = errors.New("video storage is not configured")

	ErrValidationFailed = errors.New("validation failed")
)
