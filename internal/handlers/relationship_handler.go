package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"github.com/rifat-dv/meshly/backend/internal/services"
)

// RelationshipHandler handles follow request, follower and block HTTP
// requests
type RelationshipHandler struct {
	relationships *services.RelationshipService
}

// NewRelationshipHandler creates a new RelationshipHandler
func NewRelationshipHandler(relationshipService *services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationshipService}
}

// RegisterRelationshipRoutes registers relationship-related routes
func (h *RelationshipHandler) RegisterRelationshipRoutes(g *echo.Group) {
	g.POST("/relationships/requests", h.SendRequest)
	g.GET("/relationships/requests/pending", h.GetPendingRequests)
	g.PUT("/relationships/requests/:id", h.RespondToRequest)
	g.DELETE("/relationships/requests/:id", h.CancelRequest)
	g.DELETE("/relationships/followers/:id", h.RemoveFollower)
	g.DELETE("/relationships/following/:id", h.Unfollow)
	g.GET("/relationships/view/:id", h.GetRelationshipView)
	g.GET("/relationships/followers", h.GetFollowers)
	g.GET("/relationships/following", h.GetFollowing)
	g.POST("/block/:id", h.BlockUser)
	g.DELETE("/block/:id", h.UnblockUser)
	g.GET("/block", h.GetBlockedUsers)
}

// SendRequest sends a follow/friend request
func (h *RelationshipHandler) SendRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	var req models.CreateFollowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	request, err := h.relationships.SendFollowRequest(currentUserID, req.To)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusCreated, request)
}

// GetPendingRequests lists pending requests directed at the current user
func (h *RelationshipHandler) GetPendingRequests(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	requests, err := h.relationships.ListPendingRequests(currentUserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, echo.Map{"requests": requests})
}

// RespondToRequest accepts or rejects a pending request
func (h *RelationshipHandler) RespondToRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID")
	}

	var req models.RespondFollowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	request, err := h.relationships.Respond(currentUserID, uint(requestID), services.Decision(req.Decision))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, request)
}

// CancelRequest withdraws the current user's own pending request
func (h *RelationshipHandler) CancelRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID")
	}

	if err := h.relationships.CancelRequest(currentUserID, uint(requestID)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveFollower removes a follower from the current user's followers
func (h *RelationshipHandler) RemoveFollower(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	followerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.relationships.RemoveFollower(currentUserID, uint(followerID)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Unfollow stops following a user
func (h *RelationshipHandler) Unfollow(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.relationships.Unfollow(currentUserID, uint(targetID)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetRelationshipView returns the viewer's derived relationship to a user
func (h *RelationshipHandler) GetRelationshipView(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	subjectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	view, err := h.relationships.GetRelationshipView(currentUserID, uint(subjectID))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, view)
}

// GetFollowers lists the current user's followers
func (h *RelationshipHandler) GetFollowers(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	users, err := h.relationships.ListFollowers(currentUserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, echo.Map{"users": users})
}

// GetFollowing lists the users the current user follows
func (h *RelationshipHandler) GetFollowing(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	users, err := h.relationships.ListFollowing(currentUserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, echo.Map{"users": users})
}

// BlockUser blocks a user
func (h *RelationshipHandler) BlockUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.relationships.Block(currentUserID, uint(targetID)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnblockUser unblocks a user
func (h *RelationshipHandler) UnblockUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.relationships.Unblock(currentUserID, uint(targetID)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetBlockedUsers lists the users the current user has blocked
func (h *RelationshipHandler) GetBlockedUsers(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	users, err := h.relationships.ListBlocked(currentUserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, echo.Map{"users": users})
}
