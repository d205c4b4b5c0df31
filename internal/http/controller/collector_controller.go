package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greentech/marketplace/internal/http/middleware"
	"github.com/greentech/marketplace/internal/model"
	"github.com/greentech/marketplace/internal/service"
)

// CollectorController handles collector listing and location updates.
type CollectorController struct {
	searchService *service.SearchService
}

// NewCollectorController creates a new CollectorController with the given search service.
func NewCollectorController(searchService *service.SearchService) *CollectorController {
	return &CollectorController{
		searchService: searchService,
	}
}

// CollectorResponse represents a collector in API responses.
type CollectorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt string    `json:"created_at"`
}

// ListCollectorsResponse represents the response body for listing collectors.
type ListCollectorsResponse struct {
	Collectors []CollectorResponse `json:"collectors"`
}

// ListCollectors handles the HTTP GET request for listing all collectors
// with their current locations.
func (cc *CollectorController) ListCollectors(c *gin.Context) {
	collectors, err := cc.searchService.Collectors(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}

	response := ListCollectorsResponse{
		Collectors: make([]CollectorResponse, 0, len(collectors)),
	}
	for _, collector := range collectors {
		response.Collectors = append(response.Collectors, toCollectorResponse(collector))
	}

	c.JSON(http.StatusOK, response)
}

// UpdateLocationRequest represents the request body for setting or clearing
// a collector's coordinates. Null values clear the stored location.
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// UpdateLocation handles the HTTP PUT request for updating a collector's
// location. Collectors may only update their own coordinates.
func (cc *CollectorController) UpdateLocation(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := cc.searchService.UpdateCollectorLocation(c.Request.Context(), id, claims.UserID, req.Latitude, req.Longitude)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "location updated"})
}

func toCollectorResponse(collector *model.User) CollectorResponse {
	return CollectorResponse{
		ID:        collector.ID,
		Name:      collector.Name,
		Email:     collector.Email,
		Phone:     collector.Phone,
		Latitude:  collector.Latitude,
		Longitude: collector.Longitude,
		CreatedAt: collector.CreatedAt.Format(time.RFC3339),
	}
}
