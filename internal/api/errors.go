package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// statusBySentinel maps service errors to HTTP statuses. Anything not
// listed is a 500 and its message is not exposed.
var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrAuthenticationFailed, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrInvalidRole, http.StatusBadRequest},

	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrEmptySearchQuery, http.StatusBadRequest},

	{service.ErrSelfRequest, http.StatusBadRequest},
	{service.ErrSameRole, http.StatusBadRequest},
	{service.ErrAlreadyConnected, http.StatusConflict},
	{service.ErrRequestAlreadySent, http.StatusConflict},
	{service.ErrRequestNotFound, http.StatusNotFound},
	{service.ErrNotConnected, http.StatusForbidden},
	{service.ErrCoachOnly, http.StatusForbidden},
	{service.ErrAthleteOnly, http.StatusForbidden},

	{service.ErrBlockNotFound, http.StatusNotFound},
	{service.ErrTemplateNotFound, http.StatusNotFound},
	{service.ErrWeekNotFound, http.StatusNotFound},
	{service.ErrDayNotFound, http.StatusNotFound},
	{service.ErrExerciseNotFound, http.StatusNotFound},
	{service.ErrSetNotFound, http.StatusNotFound},
	{service.ErrProgramAccessDenied, http.StatusForbidden},
	{service.ErrCrossProgramMove, http.StatusBadRequest},
	{service.ErrInvalidOrder, http.StatusBadRequest},
	{service.ErrNotABlock, http.StatusBadRequest},

	{service.ErrMovementNotFound, http.StatusNotFound},
	{service.ErrMovementAccessDenied, http.StatusForbidden},

	{service.ErrInvalidContentType, http.StatusBadRequest},
	{service.ErrUploadNotFound, http.StatusNotFound},
	{service.ErrUploadObjectMissing, http.StatusBadRequest},
	{service.ErrUploadKeyMismatch, http.StatusBadRequest},
	{service.ErrMediaDisabled, http.StatusServiceUnavailable},

	{service.ErrValidationFailed, http.StatusBadRequest},
}

// writeServiceError responds with the status matching err.
// fallback is the client-facing message for unexpected failures.
func writeServiceError(c *gin.Context, err error, fallback string) {
	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			abortWithError(c, m.status, err.Error())
			return
		}
	}
	log.WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Errorf("%s: %v", fallback, err)
	_ = c.Error(err)
	abortWithError(c, http.StatusInternalServerError, fallback)
}

// objectIDParam reads a hex ObjectID path parameter, responding 400 when malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalObjectID parses a hex id from a request body field; empty means absent.
func optionalObjectID(c *gin.Context, field, hex string) (*primitive.ObjectID, bool) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+field+" format.")
		return nil, false
	}
	return &id, true
}

const dateLayout = "2006-01-02"

// optionalDate parses a YYYY-MM-DD (or RFC 3339) date as UTC midnight.
func optionalDate(c *gin.Context, field, value string) (*time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
	}
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+field+": expected YYYY-MM-DD.")
		return nil, false
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day, true
}
