package api

import (
	"net/http"
	"strconv"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
)

// MovementHandler holds the movement library service dependency.
type MovementHandler struct {
	movementService service.MovementService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movementService service.MovementService) *MovementHandler {
	return &MovementHandler{movementService: movementService}
}

// --- DTOs for API (Data Transfer Objects) ---

// MovementRequest defines the expected JSON for creating or replacing a movement.
type MovementRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	Description   string `json:"description" binding:"max=2000"`
	MuscleGroup   string `json:"muscleGroup" binding:"omitempty"`   // e.g., "Chest", "Legs"
	Technique     string `json:"technique" binding:"omitempty"`     // How to do it
	Applicability string `json:"applicability" binding:"omitempty"` // e.g., "Home", "Gym"
	Difficulty    string `json:"difficulty" binding:"omitempty"`    // e.g., "Novice", "Medium", "Advanced"
	VideoURL      string `json:"videoUrl" binding:"omitempty,url"`  // Optional, validated as URL if provided
}

func (r MovementRequest) input() service.MovementInput {
	return service.MovementInput{
		Name:          r.Name,
		Description:   r.Description,
		MuscleGroup:   r.MuscleGroup,
		Technique:     r.Technique,
		Applicability: r.Applicability,
		Difficulty:    r.Difficulty,
		VideoURL:      r.VideoURL,
	}
}

// MovementResponse is the DTO for returning movement details.
type MovementResponse struct {
	ID            string    `json:"id"`
	CoachID       string    `json:"coachId"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	MuscleGroup   string    `json:"muscleGroup,omitempty"`
	Technique     string    `json:"technique,omitempty"`
	Applicability string    `json:"applicability,omitempty"`
	Difficulty    string    `json:"difficulty,omitempty"`
	VideoURL      string    `json:"videoUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MapMovementToResponse converts a domain.Movement to MovementResponse DTO.
func MapMovementToResponse(m *domain.Movement) MovementResponse {
	if m == nil {
		return MovementResponse{}
	}
	return MovementResponse{
		ID:            m.ID.Hex(),
		CoachID:       m.CoachID.Hex(),
		Name:          m.Name,
		Description:   m.Description,
		MuscleGroup:   m.MuscleGroup,
		Technique:     m.Technique,
		Applicability: m.Applicability,
		Difficulty:    m.Difficulty,
		VideoURL:      m.VideoURL,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// MapMovementsToResponse converts a slice of domain.Movement to a slice of MovementResponse DTO.
func MapMovementsToResponse(movements []domain.Movement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = MapMovementToResponse(&movements[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateMovement godoc
// @Summary Create a new movement
// @Description Adds an entry to the authenticated coach's library.
// @Tags Movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param movement body MovementRequest true "Movement details"
// @Success 201 {object} MovementResponse "Movement created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a coach)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /movements [post]
func (h *MovementHandler) CreateMovement(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	movement, err := h.movementService.CreateMovement(c.Request.Context(), actor, req.input())
	if err != nil {
		writeServiceError(c, err, "Failed to create movement.")
		return
	}

	c.JSON(http.StatusCreated, MapMovementToResponse(movement))
}

// ListMovements godoc
// @Summary Get the authenticated coach's movements
// @Description Returns the whole library, or a name prefix match when q is given.
// @Tags Movements
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name prefix"
// @Param limit query int false "Max results for a prefix search"
// @Success 200 {array} MovementResponse "List of movements"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a coach)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /movements [get]
func (h *MovementHandler) ListMovements(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	movements, err := h.movementService.ListMovements(c.Request.Context(), actor, c.Query("q"), limit)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve movements.")
		return
	}

	c.JSON(http.StatusOK, MapMovementsToResponse(movements))
}

// GetMovement godoc
// @Summary Get one movement
// @Tags Movements
// @Produce json
// @Security BearerAuth
// @Param movementId path string true "Movement ID"
// @Success 200 {object} MovementResponse
// @Failure 403 {object} gin.H "Not the owner"
// @Failure 404 {object} gin.H "Not found"
// @Router /movements/{movementId} [get]
func (h *MovementHandler) GetMovement(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	movementID, ok := objectIDParam(c, "movementId")
	if !ok {
		return
	}
	movement, err := h.movementService.GetMovement(c.Request.Context(), actor, movementID)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve movement.")
		return
	}
	c.JSON(http.StatusOK, MapMovementToResponse(movement))
}

// UpdateMovement godoc
// @Summary Replace a movement's fields
// @Tags Movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param movementId path string true "Movement ID"
// @Param movement body MovementRequest true "Movement details"
// @Success 200 {object} MovementResponse
// @Router /movements/{movementId} [put]
func (h *MovementHandler) UpdateMovement(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	movementID, ok := objectIDParam(c, "movementId")
	if !ok {
		return
	}
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	movement, err := h.movementService.UpdateMovement(c.Request.Context(), actor, movementID, req.input())
	if err != nil {
		writeServiceError(c, err, "Failed to update movement.")
		return
	}
	c.JSON(http.StatusOK, MapMovementToResponse(movement))
}

// DeleteMovement godoc
// @Summary Delete a movement
// @Description Planned exercises that linked it keep their names.
// @Tags Movements
// @Security BearerAuth
// @Param movementId path string true "Movement ID"
// @Success 204
// @Router /movements/{movementId} [delete]
func (h *MovementHandler) DeleteMovement(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	movementID, ok := objectIDParam(c, "movementId")
	if !ok {
		return
	}
	if err := h.movementService.DeleteMovement(c.Request.Context(), actor, movementID); err != nil {
		writeServiceError(c, err, "Failed to delete movement.")
		return
	}
	c.Status(http.StatusNoContent)
}
