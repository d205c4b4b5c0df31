package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greentech/marketplace/internal/http/middleware"
	"github.com/greentech/marketplace/internal/model"
	"github.com/greentech/marketplace/internal/repository"
	"github.com/greentech/marketplace/internal/service"
)

// MaterialController handles HTTP requests for material lifecycle operations.
type MaterialController struct {
	materialService *service.MaterialService
}

// NewMaterialController creates a new MaterialController with the given material service.
func NewMaterialController(materialService *service.MaterialService) *MaterialController {
	return &MaterialController{
		materialService: materialService,
	}
}

// CreateMaterialRequest represents the request body for listing a material.
type CreateMaterialRequest struct {
	Type        string   `json:"type" binding:"required"`
	Quantity    string   `json:"quantity" binding:"required"`
	Weight      *float64 `json:"weight"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// MaterialResponse represents the response body for a material.
type MaterialResponse struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Type        string   `json:"type"`
	Quantity    string   `json:"quantity"`
	Weight      *float64 `json:"weight,omitempty"`
	Description string   `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Status      string   `json:"status"`
	CollectorID *string  `json:"collector_id,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// CreateMaterial handles the HTTP POST request for listing a new material.
// The acting user becomes the owner.
func (mc *MaterialController) CreateMaterial(c *gin.Context) {
	var req CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := middleware.GetClaims(c)
	created, err := mc.materialService.CreateMaterial(c.Request.Context(), claims.UserID, service.CreateMaterialInput{
		Type:        req.Type,
		Quantity:    req.Quantity,
		Weight:      req.Weight,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusCreated, toMaterialResponse(created))
}

// GetMaterial handles the HTTP GET request for a single material.
func (mc *MaterialController) GetMaterial(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	material, err := mc.materialService.GetMaterial(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"material": toMaterialResponse(material)})
}

// ListMaterialsRequest represents the query parameters for listing materials.
type ListMaterialsRequest struct {
	OwnerID     string `form:"owner_id"`
	CollectorID string `form:"collector_id"`
	Limit       int32  `form:"limit"`
	Token       string `form:"token"`
}

// ListMaterialsResponse represents the response body for listing materials.
type ListMaterialsResponse struct {
	Materials     []MaterialResponse `json:"materials"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

// ListMaterials handles the HTTP GET request for listing materials with
// optional owner/collector filters and pagination. Materials without a
// location still appear here; only the nearby view excludes them.
func (mc *MaterialController) ListMaterials(c *gin.Context) {
	var req ListMaterialsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery()
	if req.OwnerID != "" {
		query.With(repository.OwnerIDField, req.OwnerID)
	}
	if req.CollectorID != "" {
		query.With(repository.CollectorIDField, req.CollectorID)
	}
	if err := query.ApplyPagination(req.Limit, req.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	materials, err := mc.materialService.ListMaterials(c.Request.Context(), *query)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, toListResponse(materials))
}

// NullableFloat tells an absent JSON field apart from an explicit null, so
// an owner can clear a coordinate pair instead of only replacing it.
type NullableFloat struct {
	Present bool
	Value   *float64
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableFloat) UnmarshalJSON(data []byte) error {
	n.Present = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}

// StatsResponse represents the aggregated listing counters. Field names
// match the dashboard contract.
type StatsResponse struct {
	TotalItems  int64   `json:"totalItems"`
	TotalWeight float64 `json:"totalWeight"`
	TodayItems  int64   `json:"todayItems"`
	MonthItems  int64   `json:"monthItems"`
}

// MaterialStats handles the HTTP GET request for the dashboard counters.
// Collectors see counters scoped to their own pickups; everyone else sees
// the marketplace-wide totals.
func (mc *MaterialController) MaterialStats(c *gin.Context) {
	var collectorID *uuid.UUID
	if claims := middleware.GetClaims(c); claims != nil && claims.Role == model.UserRoleCollector {
		collectorID = &claims.UserID
	}

	stats, err := mc.materialService.Stats(c.Request.Context(), collectorID)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalItems:  stats.TotalItems,
		TotalWeight: stats.TotalWeight,
		TodayItems:  stats.TodayItems,
		MonthItems:  stats.MonthItems,
	})
}

// UpdateMaterialRequest represents the request body for an owner-side
// correction. Absent fields stay untouched; explicit nulls on both
// coordinates clear the location.
type UpdateMaterialRequest struct {
	Type        *string       `json:"type"`
	Quantity    *string       `json:"quantity"`
	Weight      *float64      `json:"weight"`
	Description *string       `json:"description"`
	Latitude    NullableFloat `json:"latitude"`
	Longitude   NullableFloat `json:"longitude"`
	Status      *string       `json:"status"`
}

// UpdateMaterial handles the HTTP PUT request for editing a material. Owner only.
func (mc *MaterialController) UpdateMaterial(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateMaterialInput{
		Type:        req.Type,
		Quantity:    req.Quantity,
		Weight:      req.Weight,
		Description: req.Description,
	}
	if req.Latitude.Present || req.Longitude.Present {
		input.SetLocation = true
		input.Latitude = req.Latitude.Value
		input.Longitude = req.Longitude.Value
	}
	if req.Status != nil {
		status := model.MaterialStatus(*req.Status)
		input.Status = &status
	}

	claims := middleware.GetClaims(c)
	material, err := mc.materialService.UpdateMaterial(c.Request.Context(), id, claims.UserID, input)
	if err != nil {
		respondError(c, err, "material changed since it was loaded")
		return
	}

	c.JSON(http.StatusOK, gin.H{"material": toMaterialResponse(material)})
}

// DeleteMaterial handles the HTTP DELETE request for removing a material.
// Allowed for the owner, or for the collector once the material is collected.
func (mc *MaterialController) DeleteMaterial(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if err := mc.materialService.DeleteMaterial(c.Request.Context(), id, claims.UserID); err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "material deleted successfully"})
}

// ReserveMaterial handles the HTTP POST request for reserving an available material.
func (mc *MaterialController) ReserveMaterial(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	material, err := mc.materialService.Reserve(c.Request.Context(), id, claims.UserID)
	if err != nil {
		respondError(c, err, "material is no longer available")
		return
	}

	c.JSON(http.StatusOK, gin.H{"material": toMaterialResponse(material)})
}

// CollectMaterial handles the HTTP POST request for confirming pickup.
func (mc *MaterialController) CollectMaterial(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	material, err := mc.materialService.Collect(c.Request.Context(), id, claims.UserID)
	if err != nil {
		respondError(c, err, "material already collected")
		return
	}

	c.JSON(http.StatusOK, gin.H{"material": toMaterialResponse(material)})
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid material ID"})
		return uuid.Nil, false
	}
	return id, true
}

func toMaterialResponse(material *model.Material) MaterialResponse {
	resp := MaterialResponse{
		ID:          material.ID.String(),
		OwnerID:     material.OwnerID.String(),
		Type:        material.Type,
		Quantity:    material.Quantity,
		Weight:      material.Weight,
		Description: material.Description,
		Latitude:    material.Latitude,
		Longitude:   material.Longitude,
		Status:      string(material.Status),
		CreatedAt:   material.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   material.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if material.CollectorID != nil {
		collectorID := material.CollectorID.String()
		resp.CollectorID = &collectorID
	}
	return resp
}

func toListResponse(materials []*model.Material) ListMaterialsResponse {
	var materialResponses []MaterialResponse
	for _, material := range materials {
		materialResponses = append(materialResponses, toMaterialResponse(material))
	}

	response := ListMaterialsResponse{
		Materials: materialResponses,
	}

	// Generate next page token if we have results
	if len(materials) > 0 {
		last := materials[len(materials)-1]
		paginator := repository.Paginator{
			LastID:        last.ID,
			LastCreatedAt: last.CreatedAt,
		}
		response.NextPageToken = paginator.Encode()
	}

	return response
}
