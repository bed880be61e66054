package api

import (
	"net/http"
	"strconv"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves profiles and user search.
type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type UpdateProfileRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Bio      string `json:"bio" binding:"max=500"`
	Sport    string `json:"sport" binding:"max=100"`
	Location string `json:"location" binding:"max=100"`
}

// GetMe godoc
// @Summary Get the authenticated user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	user, err := h.userService.GetMe(c.Request.Context(), actor)
	if err != nil {
		writeServiceError(c, err, "Failed to load user.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateMe godoc
// @Summary Update the authenticated user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), actor, service.ProfileUpdate{
		Name:     req.Name,
		Bio:      req.Bio,
		Sport:    req.Sport,
		Location: req.Location,
	})
	if err != nil {
		writeServiceError(c, err, "Failed to update profile.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// GetProfile godoc
// @Summary Get a user's public profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} gin.H "User not found"
// @Router /users/{userId} [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "Failed to load profile.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// SearchUsers godoc
// @Summary Search users by name or username prefix
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param q query string true "Prefix"
// @Param role query string false "coach or athlete"
// @Param limit query int false "Max results (default 20, max 50)"
// @Success 200 {array} UserResponse
// @Failure 400 {object} gin.H "Empty query or invalid role"
// @Router /users/search [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	users, err := h.userService.Search(c.Request.Context(), actor, c.Query("q"), domain.Role(c.Query("role")), limit)
	if err != nil {
		writeServiceError(c, err, "Search failed.")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}
