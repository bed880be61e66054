package api

import (
	"context"
	"net/http"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TreeHandler edits the weeks, days, exercises and sets of a program.
type TreeHandler struct {
	treeService service.TreeService
}

func NewTreeHandler(treeService service.TreeService) *TreeHandler {
	return &TreeHandler{treeService: treeService}
}

// --- DTOs ---

type WeekRequest struct {
	Name  string `json:"name" binding:"max=200"`
	Notes string `json:"notes" binding:"max=2000"`
}

type DayRequest struct {
	Name  string `json:"name" binding:"max=200"`
	Notes string `json:"notes" binding:"max=2000"`
	Date  string `json:"date"` // YYYY-MM-DD, block days only
}

type DuplicateDayRequest struct {
	WeekID string `json:"weekId"` // empty copies into the same week
}

type ExerciseRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	Notes      string `json:"notes" binding:"max=2000"`
	MovementID string `json:"movementId"`
}

type ReorderExercisesRequest struct {
	ExerciseIDs []string `json:"exerciseIds" binding:"required"`
}

type SetRequest struct {
	Reps    *int     `json:"reps" binding:"omitempty,min=0"`
	Weight  *float64 `json:"weight" binding:"omitempty,min=0"`
	RPE     *float64 `json:"rpe" binding:"omitempty,min=0,max=10"`
	Percent *float64 `json:"percent" binding:"omitempty,min=0"`
	Notes   string   `json:"notes" binding:"max=2000"`
}

func (r SetRequest) input() service.SetInput {
	return service.SetInput{Reps: r.Reps, Weight: r.Weight, RPE: r.RPE, Percent: r.Percent, Notes: r.Notes}
}

// --- Weeks ---

// AddBlockWeek godoc
// @Summary Append a week to a block
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param blockId path string true "Block ID"
// @Param week body WeekRequest false "Week fields"
// @Success 201 {object} domain.Week
// @Router /blocks/{blockId}/weeks [post]
func (h *TreeHandler) AddBlockWeek(c *gin.Context) {
	h.addWeek(c, domain.KindBlock, "blockId")
}

// AddTemplateWeek godoc
// @Summary Append a week to a template
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param templateId path string true "Template ID"
// @Param week body WeekRequest false "Week fields"
// @Success 201 {object} domain.Week
// @Router /templates/{templateId}/weeks [post]
func (h *TreeHandler) AddTemplateWeek(c *gin.Context) {
	h.addWeek(c, domain.KindTemplate, "templateId")
}

func (h *TreeHandler) addWeek(c *gin.Context, kind domain.ProgramKind, param string) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, param)
	if !ok {
		return
	}
	var req WeekRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	week, err := h.treeService.AddWeek(c.Request.Context(), actor, domain.ProgramRef{Kind: kind, ID: programID}, service.WeekInput{Name: req.Name, Notes: req.Notes})
	if err != nil {
		writeServiceError(c, err, "Failed to add week.")
		return
	}
	c.JSON(http.StatusCreated, week)
}

// UpdateWeek godoc
// @Summary Update a week's name and notes
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param weekId path string true "Week ID"
// @Param week body WeekRequest true "Week fields"
// @Success 200 {object} domain.Week
// @Router /weeks/{weekId} [put]
func (h *TreeHandler) UpdateWeek(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	var req WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	week, err := h.treeService.UpdateWeek(c.Request.Context(), actor, weekID, service.WeekInput{Name: req.Name, Notes: req.Notes})
	if err != nil {
		writeServiceError(c, err, "Failed to update week.")
		return
	}
	c.JSON(http.StatusOK, week)
}

// DuplicateWeek godoc
// @Summary Append a copy of a week to its program
// @Tags Tree
// @Produce json
// @Security BearerAuth
// @Param weekId path string true "Week ID"
// @Success 201 {object} domain.Week
// @Router /weeks/{weekId}/duplicate [post]
func (h *TreeHandler) DuplicateWeek(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	week, err := h.treeService.DuplicateWeek(c.Request.Context(), actor, weekID)
	if err != nil {
		writeServiceError(c, err, "Failed to duplicate week.")
		return
	}
	c.JSON(http.StatusCreated, week)
}

// DeleteWeek godoc
// @Summary Delete a week and everything under it
// @Description Remaining weeks are renumbered from 1.
// @Tags Tree
// @Security BearerAuth
// @Param weekId path string true "Week ID"
// @Success 204
// @Router /weeks/{weekId} [delete]
func (h *TreeHandler) DeleteWeek(c *gin.Context) {
	h.deleteNode(c, "weekId", h.treeService.DeleteWeek, "Failed to delete week.")
}

// --- Days ---

// AddDay godoc
// @Summary Append a day to a week
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param weekId path string true "Week ID"
// @Param day body DayRequest false "Day fields"
// @Success 201 {object} domain.Day
// @Router /weeks/{weekId}/days [post]
func (h *TreeHandler) AddDay(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	var req DayRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	in, ok := dayInput(c, req)
	if !ok {
		return
	}
	day, err := h.treeService.AddDay(c.Request.Context(), actor, weekID, in)
	if err != nil {
		writeServiceError(c, err, "Failed to add day.")
		return
	}
	c.JSON(http.StatusCreated, day)
}

// UpdateDay godoc
// @Summary Update a day's name, notes and date
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dayId path string true "Day ID"
// @Param day body DayRequest true "Day fields"
// @Success 200 {object} domain.Day
// @Router /days/{dayId} [put]
func (h *TreeHandler) UpdateDay(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	dayID, ok := objectIDParam(c, "dayId")
	if !ok {
		return
	}
	var req DayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	in, ok := dayInput(c, req)
	if !ok {
		return
	}
	day, err := h.treeService.UpdateDay(c.Request.Context(), actor, dayID, in)
	if err != nil {
		writeServiceError(c, err, "Failed to update day.")
		return
	}
	c.JSON(http.StatusOK, day)
}

func dayInput(c *gin.Context, req DayRequest) (service.DayInput, bool) {
	date, ok := optionalDate(c, "date", req.Date)
	if !ok {
		return service.DayInput{}, false
	}
	return service.DayInput{Name: req.Name, Notes: req.Notes, Date: date}, true
}

// DuplicateDay godoc
// @Summary Append a copy of a day to a week of the same program
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dayId path string true "Day ID"
// @Param target body DuplicateDayRequest false "Target week"
// @Success 201 {object} domain.Day
// @Failure 400 {object} gin.H "Target week in another program"
// @Router /days/{dayId}/duplicate [post]
func (h *TreeHandler) DuplicateDay(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	dayID, ok := objectIDParam(c, "dayId")
	if !ok {
		return
	}
	var req DuplicateDayRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	targetWeekID, ok := optionalObjectID(c, "weekId", req.WeekID)
	if !ok {
		return
	}
	day, err := h.treeService.DuplicateDay(c.Request.Context(), actor, dayID, targetWeekID)
	if err != nil {
		writeServiceError(c, err, "Failed to duplicate day.")
		return
	}
	c.JSON(http.StatusCreated, day)
}

// DeleteDay godoc
// @Summary Delete a day and everything under it
// @Tags Tree
// @Security BearerAuth
// @Param dayId path string true "Day ID"
// @Success 204
// @Router /days/{dayId} [delete]
func (h *TreeHandler) DeleteDay(c *gin.Context) {
	h.deleteNode(c, "dayId", h.treeService.DeleteDay, "Failed to delete day.")
}

// --- Exercises ---

// AddExercise godoc
// @Summary Append an exercise to a day
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dayId path string true "Day ID"
// @Param exercise body ExerciseRequest true "Exercise fields"
// @Success 201 {object} domain.Exercise
// @Router /days/{dayId}/exercises [post]
func (h *TreeHandler) AddExercise(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	dayID, ok := objectIDParam(c, "dayId")
	if !ok {
		return
	}
	in, ok := exerciseInput(c)
	if !ok {
		return
	}
	exercise, err := h.treeService.AddExercise(c.Request.Context(), actor, dayID, in)
	if err != nil {
		writeServiceError(c, err, "Failed to add exercise.")
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

// UpdateExercise godoc
// @Summary Update an exercise's name, notes and movement link
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Param exercise body ExerciseRequest true "Exercise fields"
// @Success 200 {object} domain.Exercise
// @Router /exercises/{exerciseId} [put]
func (h *TreeHandler) UpdateExercise(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	exerciseID, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	in, ok := exerciseInput(c)
	if !ok {
		return
	}
	exercise, err := h.treeService.UpdateExercise(c.Request.Context(), actor, exerciseID, in)
	if err != nil {
		writeServiceError(c, err, "Failed to update exercise.")
		return
	}
	c.JSON(http.StatusOK, exercise)
}

func exerciseInput(c *gin.Context) (service.ExerciseInput, bool) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return service.ExerciseInput{}, false
	}
	movementID, ok := optionalObjectID(c, "movementId", req.MovementID)
	if !ok {
		return service.ExerciseInput{}, false
	}
	return service.ExerciseInput{Name: req.Name, Notes: req.Notes, MovementID: movementID}, true
}

// ReorderExercises godoc
// @Summary Set the order of a day's exercises
// @Description The list must contain every live exercise of the day exactly once.
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dayId path string true "Day ID"
// @Param order body ReorderExercisesRequest true "Exercise ids in the new order"
// @Success 200 {array} domain.Exercise
// @Router /days/{dayId}/exercises/order [put]
func (h *TreeHandler) ReorderExercises(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	dayID, ok := objectIDParam(c, "dayId")
	if !ok {
		return
	}
	var req ReorderExercisesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	order := make([]primitive.ObjectID, 0, len(req.ExerciseIDs))
	for _, hex := range req.ExerciseIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid exercise id: "+hex)
			return
		}
		order = append(order, id)
	}
	exercises, err := h.treeService.ReorderExercises(c.Request.Context(), actor, dayID, order)
	if err != nil {
		writeServiceError(c, err, "Failed to reorder exercises.")
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// DeleteExercise godoc
// @Summary Delete an exercise and its sets
// @Tags Tree
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Success 204
// @Router /exercises/{exerciseId} [delete]
func (h *TreeHandler) DeleteExercise(c *gin.Context) {
	h.deleteNode(c, "exerciseId", h.treeService.DeleteExercise, "Failed to delete exercise.")
}

// --- Sets ---

// AddSet godoc
// @Summary Append a set to an exercise
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Param set body SetRequest true "Prescription"
// @Success 201 {object} domain.Set
// @Router /exercises/{exerciseId}/sets [post]
func (h *TreeHandler) AddSet(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	exerciseID, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	var req SetRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	set, err := h.treeService.AddSet(c.Request.Context(), actor, exerciseID, req.input())
	if err != nil {
		writeServiceError(c, err, "Failed to add set.")
		return
	}
	c.JSON(http.StatusCreated, set)
}

// UpdateSet godoc
// @Summary Update a set's prescription
// @Tags Tree
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Param set body SetRequest true "Prescription"
// @Success 200 {object} domain.Set
// @Router /sets/{setId} [put]
func (h *TreeHandler) UpdateSet(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	setID, ok := objectIDParam(c, "setId")
	if !ok {
		return
	}
	var req SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	set, err := h.treeService.UpdateSet(c.Request.Context(), actor, setID, req.input())
	if err != nil {
		writeServiceError(c, err, "Failed to update set.")
		return
	}
	c.JSON(http.StatusOK, set)
}

// DeleteSet godoc
// @Summary Delete a set
// @Tags Tree
// @Security BearerAuth
// @Param setId path string true "Set ID"
// @Success 204
// @Router /sets/{setId} [delete]
func (h *TreeHandler) DeleteSet(c *gin.Context) {
	h.deleteNode(c, "setId", h.treeService.DeleteSet, "Failed to delete set.")
}

func (h *TreeHandler) deleteNode(c *gin.Context, param string, del func(ctx context.Context, actor service.Actor, id primitive.ObjectID) error, fallback string) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, param)
	if !ok {
		return
	}
	if err := del(c.Request.Context(), actor, id); err != nil {
		writeServiceError(c, err, fallback)
		return
	}
	c.Status(http.StatusNoContent)
}
