package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/greentech/marketplace/internal/geo"
	"github.com/greentech/marketplace/internal/model"
	"github.com/greentech/marketplace/internal/repository"
)

// DefaultNearbyRadiusKm is used when the caller provides no radius.
const DefaultNearbyRadiusKm = 10

// NearbyPageSize is the cursor page size used when reading the candidate
// set for a nearby query.
const NearbyPageSize = 500

// SearchService answers the distance-bounded and free-text queries over the
// material store, plus the collector-side proximity view.
type SearchService struct {
	materialRepo repository.MaterialRepository
	userRepo     repository.UserRepository
}

// NewSearchService creates a new SearchService.
func NewSearchService(materialRepo repository.MaterialRepository, userRepo repository.UserRepository) *SearchService {
	return &SearchService{
		materialRepo: materialRepo,
		userRepo:     userRepo,
	}
}

// MaterialDistance pairs a material with its distance from the reference
// point. DistanceKm is unrounded; rounding is a display concern.
type MaterialDistance struct {
	Material   *model.Material
	DistanceKm float64
}

// Nearby returns available, located materials within radiusKm of the
// reference point, ordered by ascending distance. Materials without a
// coordinate pair never appear in this view.
func (ss *SearchService) Nearby(ctx context.Context, latitude, longitude, radiusKm float64) ([]MaterialDistance, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}

	query := repository.NewQuery().
		With(repository.StatusField, string(model.MaterialStatusAvailable)).
		With(repository.LocationField, string(repository.NotEmpty))
	query.Limit = NearbyPageSize

	// Page through the whole candidate set; the view must cover every
	// available, located material, not just the newest page.
	var results []MaterialDistance
	for {
		materials, err := ss.materialRepo.List(ctx, *query)
		if err != nil {
			return nil, fmt.Errorf("failed to load candidate materials: %w", err)
		}

		for _, material := range materials {
			if !material.HasLocation() {
				continue
			}
			distance := geo.DistanceKm(latitude, longitude, *material.Latitude, *material.Longitude)
			if distance > radiusKm {
				continue
			}
			results = append(results, MaterialDistance{
				Material:   material,
				DistanceKm: distance,
			})
		}

		if len(materials) < NearbyPageSize {
			break
		}
		last := materials[len(materials)-1]
		query.Paginator = &repository.Paginator{
			LastID:        last.ID,
			LastCreatedAt: last.CreatedAt,
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})

	return results, nil
}

// Search returns materials filtered by exact type (when typeFilter is set)
// and by case-insensitive substring match of term over type, quantity and
// description, newest first.
func (ss *SearchService) Search(ctx context.Context, term, typeFilter string, query repository.Query) ([]*model.Material, error) {
	if typeFilter != "" {
		if query.Values == nil {
			query.Values = map[repository.QueryField]string{}
		}
		query.Values[repository.TypeField] = typeFilter
	}
	if term != "" {
		query.Search = term
	}
	return ss.materialRepo.List(ctx, query)
}

// Collectors returns all users with the collector role, including their
// current locations for the map view.
func (ss *SearchService) Collectors(ctx context.Context) ([]*model.User, error) {
	return ss.userRepo.ListCollectors(ctx)
}

// UpdateCollectorLocation sets or clears a collector's coordinates. Only the
// owning collector may mutate their location; a partial pair is rejected.
func (ss *SearchService) UpdateCollectorLocation(ctx context.Context, id, actorID uuid.UUID, latitude, longitude *float64) error {
	if id != actorID {
		return fmt.Errorf("collectors may only update their own location: %w", ErrForbidden)
	}
	if (latitude == nil) != (longitude == nil) {
		return fmt.Errorf("latitude and longitude must both be set or both be null: %w", ErrValidation)
	}
	return ss.userRepo.UpdateLocation(ctx, id, latitude, longitude)
}
