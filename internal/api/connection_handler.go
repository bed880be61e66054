package api

import (
	"context"
	"net/http"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConnectionHandler exposes the coach/athlete request handshake.
type ConnectionHandler struct {
	connectionService service.ConnectionService
}

func NewConnectionHandler(connectionService service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

type ConnectionRequestResponse struct {
	Outcome service.RequestOutcome `json:"outcome"`
}

// SendRequest godoc
// @Summary Send a connection request
// @Description Asks another user to connect. If they already asked the caller, the pair is connected immediately.
// @Tags Connections
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Target user ID"
// @Success 200 {object} ConnectionRequestResponse
// @Failure 400 {object} gin.H "Self request or same role"
// @Failure 404 {object} gin.H "User not found"
// @Failure 409 {object} gin.H "Already connected or already requested"
// @Router /connections/requests/{userId} [post]
func (h *ConnectionHandler) SendRequest(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	targetID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	outcome, err := h.connectionService.SendRequest(c.Request.Context(), actor, targetID)
	if err != nil {
		writeServiceError(c, err, "Failed to send request.")
		return
	}
	c.JSON(http.StatusOK, ConnectionRequestResponse{Outcome: outcome})
}

// AcceptRequest godoc
// @Summary Accept an incoming request
// @Tags Connections
// @Security BearerAuth
// @Param userId path string true "Requester user ID"
// @Success 204
// @Failure 404 {object} gin.H "No pending request"
// @Router /connections/requests/{userId}/accept [post]
func (h *ConnectionHandler) AcceptRequest(c *gin.Context) {
	h.pairAction(c, h.connectionService.Accept, "Failed to accept request.")
}

// DeclineRequest godoc
// @Summary Decline an incoming request
// @Tags Connections
// @Security BearerAuth
// @Param userId path string true "Requester user ID"
// @Success 204
// @Failure 404 {object} gin.H "No pending request"
// @Router /connections/requests/{userId}/decline [post]
func (h *ConnectionHandler) DeclineRequest(c *gin.Context) {
	h.pairAction(c, h.connectionService.Decline, "Failed to decline request.")
}

// CancelRequest godoc
// @Summary Withdraw an outgoing request
// @Tags Connections
// @Security BearerAuth
// @Param userId path string true "Target user ID"
// @Success 204
// @Failure 404 {object} gin.H "No such request"
// @Router /connections/requests/{userId} [delete]
func (h *ConnectionHandler) CancelRequest(c *gin.Context) {
	h.pairAction(c, h.connectionService.Cancel, "Failed to cancel request.")
}

// Disconnect godoc
// @Summary Remove a coach/athlete connection
// @Description Existing blocks are kept.
// @Tags Connections
// @Security BearerAuth
// @Param userId path string true "Connected user ID"
// @Success 204
// @Failure 404 {object} gin.H "Not connected"
// @Router /connections/{userId} [delete]
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	h.pairAction(c, h.connectionService.Disconnect, "Failed to disconnect.")
}

func (h *ConnectionHandler) pairAction(c *gin.Context, action func(context.Context, service.Actor, primitive.ObjectID) error, fallback string) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	otherID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	if err := action(c.Request.Context(), actor, otherID); err != nil {
		writeServiceError(c, err, fallback)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListConnections godoc
// @Summary List connected coaches (athlete) or athletes (coach)
// @Tags Connections
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /connections [get]
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	h.list(c, h.connectionService.ListConnections)
}

// ListPending godoc
// @Summary List incoming requests awaiting the caller
// @Tags Connections
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /connections/pending [get]
func (h *ConnectionHandler) ListPending(c *gin.Context) {
	h.list(c, h.connectionService.ListPending)
}

// ListSent godoc
// @Summary List outgoing requests
// @Tags Connections
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /connections/sent [get]
func (h *ConnectionHandler) ListSent(c *gin.Context) {
	h.list(c, h.connectionService.ListSent)
}

func (h *ConnectionHandler) list(c *gin.Context, fetch func(context.Context, service.Actor) ([]domain.User, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	users, err := fetch(c.Request.Context(), actor)
	if err != nil {
		writeServiceError(c, err, "Failed to list users.")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}
