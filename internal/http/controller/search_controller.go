package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greentech/marketplace/internal/geo"
	"github.com/greentech/marketplace/internal/repository"
	"github.com/greentech/marketplace/internal/service"
)

// SearchController handles the public search and proximity endpoints.
type SearchController struct {
	searchService *service.SearchService
}

// NewSearchController creates a new SearchController with the given search service.
func NewSearchController(searchService *service.SearchService) *SearchController {
	return &SearchController{
		searchService: searchService,
	}
}

// SearchMaterialsRequest represents the query parameters for text search.
type SearchMaterialsRequest struct {
	Query string `form:"q"`
	Type  string `form:"type"`
	Limit int32  `form:"limit"`
	Token string `form:"token"`
}

// SearchMaterials handles the HTTP GET request for free-text material search.
// Matching is substring-based over type, quantity and description; a query
// in one language never matches a listing written in another.
func (sc *SearchController) SearchMaterials(c *gin.Context) {
	var req SearchMaterialsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery()
	if err := query.ApplyPagination(req.Limit, req.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	materials, err := sc.searchService.Search(c.Request.Context(), req.Query, req.Type, *query)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, toListResponse(materials))
}

// NearbyMaterialsRequest represents the query parameters for proximity search.
// Reference coordinates are mandatory; the radius defaults to 10 km.
type NearbyMaterialsRequest struct {
	Latitude  *float64 `form:"latitude" binding:"required"`
	Longitude *float64 `form:"longitude" binding:"required"`
	RadiusKm  float64  `form:"radius_km"`
}

// NearbyMaterialResponse is a material with its distance from the reference
// point, rounded to two decimals for display.
type NearbyMaterialResponse struct {
	MaterialResponse
	DistanceKm float64 `json:"distance_km"`
}

// NearbyMaterialsResponse represents the response body for proximity search.
type NearbyMaterialsResponse struct {
	Materials []NearbyMaterialResponse `json:"materials"`
}

// NearbyMaterials handles the HTTP GET request for distance-bounded search
// over available, located materials, ascending by distance.
func (sc *SearchController) NearbyMaterials(c *gin.Context) {
	var req NearbyMaterialsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	results, err := sc.searchService.Nearby(c.Request.Context(), *req.Latitude, *req.Longitude, req.RadiusKm)
	if err != nil {
		respondError(c, err, "")
		return
	}

	response := NearbyMaterialsResponse{
		Materials: make([]NearbyMaterialResponse, 0, len(results)),
	}
	for _, result := range results {
		response.Materials = append(response.Materials, NearbyMaterialResponse{
			MaterialResponse: toMaterialResponse(result.Material),
			DistanceKm:       geo.RoundKm(result.DistanceKm),
		})
	}

	c.JSON(http.StatusOK, response)
}
