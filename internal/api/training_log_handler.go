package api

import (
	"net/http"

	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
)

// TrainingLogHandler lets athletes record what they actually did.
type TrainingLogHandler struct {
	logService service.TrainingLogService
}

func NewTrainingLogHandler(logService service.TrainingLogService) *TrainingLogHandler {
	return &TrainingLogHandler{logService: logService}
}

type LogSetRequest struct {
	ActualReps   *int     `json:"actualReps" binding:"omitempty,min=0"`
	ActualWeight *float64 `json:"actualWeight" binding:"omitempty,min=0"`
	ActualRPE    *float64 `json:"actualRpe" binding:"omitempty,min=0,max=10"`
	Notes        string   `json:"notes" binding:"max=2000"`
}

type CompleteDayRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// LogSet godoc
// @Summary Log a set
// @Description Marks the set completed with the athlete's actual numbers.
// @Tags Training Log
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Param log body LogSetRequest true "Actual values"
// @Success 200 {object} domain.Set
// @Failure 400 {object} gin.H "Template set or invalid values"
// @Failure 403 {object} gin.H "Not the block's athlete"
// @Router /sets/{setId}/log [put]
func (h *TrainingLogHandler) LogSet(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	setID, ok := objectIDParam(c, "setId")
	if !ok {
		return
	}
	var req LogSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	set, err := h.logService.LogSet(c.Request.Context(), actor, setID, service.SetLog{
		ActualReps:   req.ActualReps,
		ActualWeight: req.ActualWeight,
		ActualRPE:    req.ActualRPE,
		Notes:        req.Notes,
	})
	if err != nil {
		writeServiceError(c, err, "Failed to log set.")
		return
	}
	c.JSON(http.StatusOK, set)
}

// ClearSetLog godoc
// @Summary Clear a set's log
// @Tags Training Log
// @Produce json
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Success 200 {object} domain.Set
// @Router /sets/{setId}/log [delete]
func (h *TrainingLogHandler) ClearSetLog(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	setID, ok := objectIDParam(c, "setId")
	if !ok {
		return
	}
	set, err := h.logService.ClearSetLog(c.Request.Context(), actor, setID)
	if err != nil {
		writeServiceError(c, err, "Failed to clear set log.")
		return
	}
	c.JSON(http.StatusOK, set)
}

// CompleteDay godoc
// @Summary Mark a day completed or not
// @Tags Training Log
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dayId path string true "Day ID"
// @Param completion body CompleteDayRequest true "Completion flag"
// @Success 200 {object} domain.Day
// @Router /days/{dayId}/completion [put]
func (h *TrainingLogHandler) CompleteDay(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	dayID, ok := objectIDParam(c, "dayId")
	if !ok {
		return
	}
	var req CompleteDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	day, err := h.logService.CompleteDay(c.Request.Context(), actor, dayID, *req.Completed)
	if err != nil {
		writeServiceError(c, err, "Failed to update day.")
		return
	}
	c.JSON(http.StatusOK, day)
}

// ExerciseHistory godoc
// @Summary Logged history of one exercise
// @Description Completed sets of every exercise with this name across the athlete's blocks, with an estimated 1RM per set. Coaches pass athleteId for a connected athlete.
// @Tags Training Log
// @Produce json
// @Security BearerAuth
// @Param name query string true "Exercise name (case-insensitive)"
// @Param athleteId query string false "Athlete (coach only; defaults to the caller)"
// @Success 200 {array} service.HistoryEntry
// @Failure 403 {object} gin.H "Athlete not connected"
// @Router /history [get]
func (h *TrainingLogHandler) ExerciseHistory(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	athleteID := actor.ID
	requested, ok := optionalObjectID(c, "athleteId", c.Query("athleteId"))
	if !ok {
		return
	}
	if requested != nil {
		athleteID = *requested
	}
	history, err := h.logService.ExerciseHistory(c.Request.Context(), actor, athleteID, c.Query("name"))
	if err != nil {
		writeServiceError(c, err, "Failed to load history.")
		return
	}
	c.JSON(http.StatusOK, history)
}
