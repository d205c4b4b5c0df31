package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greentech/marketplace/internal/auth"
	"github.com/greentech/marketplace/internal/config"
	httpAPI "github.com/greentech/marketplace/internal/http"
	"github.com/greentech/marketplace/internal/http/controller"
	"github.com/greentech/marketplace/internal/model"
	"github.com/greentech/marketplace/internal/repository"
	"github.com/greentech/marketplace/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

// MockMaterialRepository is a mock implementation of repository.MaterialRepository
type MockMaterialRepository struct {
	mock.Mock
}

func (m *MockMaterialRepository) Create(ctx context.Context, material *model.Material) (*model.Material, error) {
	args := m.Called(ctx, material)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialRepository) List(ctx context.Context, query repository.Query) ([]*model.Material, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Material), args.Error(1)
}

func (m *MockMaterialRepository) Update(ctx context.Context, material *model.Material) error {
	args := m.Called(ctx, material)
	return args.Error(0)
}

func (m *MockMaterialRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMaterialRepository) Transition(ctx context.Context, id uuid.UUID, from []model.MaterialStatus, to model.MaterialStatus, collectorID uuid.UUID) (*model.Material, error) {
	args := m.Called(ctx, id, from, to, collectorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockMaterialRepository) Stats(ctx context.Context, collectorID *uuid.UUID) (*model.MaterialStats, error) {
	args := m.Called(ctx, collectorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MaterialStats), args.Error(1)
}

// MockTransactionalRepository is a mock implementation of repository.TransactionalRepository
type MockTransactionalRepository struct {
	mock.Mock
}

func (m *MockTransactionalRepository) CreateMaterialWithEvent(ctx context.Context, material *model.Material, buildEvent repository.EventBuilder) (*model.Material, error) {
	args := m.Called(ctx, material, buildEvent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockTransactionalRepository) TransitionMaterialWithEvent(ctx context.Context, id uuid.UUID, from []model.MaterialStatus, to model.MaterialStatus, collectorID uuid.UUID, buildEvent repository.EventBuilder) (*model.Material, error) {
	args := m.Called(ctx, id, from, to, collectorID, buildEvent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Material), args.Error(1)
}

func (m *MockTransactionalRepository) DeleteMaterialWithEvent(ctx context.Context, material *model.Material, buildEvent repository.EventBuilder) error {
	args := m.Called(ctx, material, buildEvent)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ListCollectors(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLocation(ctx context.Context, id uuid.UUID, latitude, longitude *float64) error {
	args := m.Called(ctx, id, latitude, longitude)
	return args.Error(0)
}

type testEnv struct {
	router   *gin.Engine
	repo     *MockMaterialRepository
	txRepo   *MockTransactionalRepository
	userRepo *MockUserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := new(MockMaterialRepository)
	txRepo := new(MockTransactionalRepository)
	userRepo := new(MockUserRepository)

	materialService := service.NewMaterialService(repo, txRepo)
	searchService := service.NewSearchService(repo, userRepo)

	conf := &config.Config{JWTSecret: testSecret}
	router := httpAPI.InitRouter(conf, gin.New(),
		controller.NewMaterialController(materialService),
		controller.NewSearchController(searchService),
		controller.NewCollectorController(searchService))

	return &testEnv{router: router, repo: repo, txRepo: txRepo, userRepo: userRepo}
}

func token(t *testing.T, userID uuid.UUID, role model.UserRole) string {
	t.Helper()
	signed, err := auth.GenerateToken(testSecret, userID, "Test User", role)
	require.NoError(t, err)
	return "Bearer " + signed
}

func doRequest(env *testEnv, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestCreateMaterialEndpoint(t *testing.T) {
	t.Run("rejects anonymous requests", func(t *testing.T) {
		env := newTestEnv(t)

		w := doRequest(env, http.MethodPost, "/materials", "", gin.H{
			"type": "plastic", "quantity": "5 bags",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("creates a material for the acting user", func(t *testing.T) {
		env := newTestEnv(t)
		ownerID := uuid.New()

		created := &model.Material{
			OwnerID:  ownerID,
			Type:     "plastic",
			Quantity: "5 bags",
			Status:   model.MaterialStatusAvailable,
		}
		created.InitMeta()

		env.txRepo.On("CreateMaterialWithEvent", mock.Anything, mock.Anything, mock.Anything).
			Return(created, nil)

		w := doRequest(env, http.MethodPost, "/materials", token(t, ownerID, model.UserRoleGenerator), gin.H{
			"type": "plastic", "quantity": "5 bags",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), ownerID.String())
	})

	t.Run("rejects a body without quantity", func(t *testing.T) {
		env := newTestEnv(t)

		w := doRequest(env, http.MethodPost, "/materials", token(t, uuid.New(), model.UserRoleGenerator), gin.H{
			"type": "plastic",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetMaterialEndpoint(t *testing.T) {
	t.Run("unknown id yields 404", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()

		env.repo.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

		w := doRequest(env, http.MethodGet, "/materials/"+id.String(), "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id yields 400", func(t *testing.T) {
		env := newTestEnv(t)

		w := doRequest(env, http.MethodGet, "/materials/not-a-uuid", "", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateMaterialEndpoint(t *testing.T) {
	t.Run("non-owner gets a generic denial", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()

		env.repo.On("FindByID", mock.Anything, id).Return(&model.Material{
			ID:      id,
			OwnerID: uuid.New(),
			Status:  model.MaterialStatusAvailable,
		}, nil)

		w := doRequest(env, http.MethodPut, "/materials/"+id.String(),
			token(t, uuid.New(), model.UserRoleGenerator), gin.H{"type": "glass"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "not allowed")
		assert.NotContains(t, w.Body.String(), id.String())
	})

	t.Run("owner clears the location with explicit nulls", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()
		ownerID := uuid.New()
		latitude, longitude := -23.5505, -46.6333

		env.repo.On("FindByID", mock.Anything, id).Return(&model.Material{
			ID:        id,
			OwnerID:   ownerID,
			Type:      "plastic",
			Quantity:  "5 bags",
			Status:    model.MaterialStatusAvailable,
			Latitude:  &latitude,
			Longitude: &longitude,
		}, nil)
		env.repo.On("Update", mock.Anything, mock.MatchedBy(func(material *model.Material) bool {
			return material.Latitude == nil && material.Longitude == nil
		})).Return(nil)

		w := doRequest(env, http.MethodPut, "/materials/"+id.String(),
			token(t, ownerID, model.UserRoleGenerator),
			gin.H{"latitude": nil, "longitude": nil})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "latitude")

		env.repo.AssertExpectations(t)
	})
}

func TestMaterialStatsEndpoint(t *testing.T) {
	t.Run("anonymous users see marketplace-wide counters", func(t *testing.T) {
		env := newTestEnv(t)

		env.repo.On("Stats", mock.Anything, (*uuid.UUID)(nil)).Return(&model.MaterialStats{
			TotalItems:  12,
			TotalWeight: 34.5,
			TodayItems:  2,
			MonthItems:  7,
		}, nil)

		w := doRequest(env, http.MethodGet, "/materials/stats", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(12), resp["totalItems"])
		assert.Equal(t, 34.5, resp["totalWeight"])
		assert.Equal(t, float64(2), resp["todayItems"])
		assert.Equal(t, float64(7), resp["monthItems"])

		env.repo.AssertExpectations(t)
	})

	t.Run("collectors see counters scoped to their pickups", func(t *testing.T) {
		env := newTestEnv(t)
		collectorID := uuid.New()

		env.repo.On("Stats", mock.Anything, &collectorID).
			Return(&model.MaterialStats{TotalItems: 3}, nil)

		w := doRequest(env, http.MethodGet, "/materials/stats",
			token(t, collectorID, model.UserRoleCollector), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"totalItems":3`)

		env.repo.AssertExpectations(t)
	})
}

func TestReserveMaterialEndpoint(t *testing.T) {
	t.Run("generators may not reserve", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()

		w := doRequest(env, http.MethodPost, "/materials/"+id.String()+"/reserve",
			token(t, uuid.New(), model.UserRoleGenerator), nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("collector reserves an available material", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()
		collectorID := uuid.New()

		env.txRepo.On("TransitionMaterialWithEvent", mock.Anything, id,
			[]model.MaterialStatus{model.MaterialStatusAvailable},
			model.MaterialStatusReserved, collectorID, mock.Anything).
			Return(&model.Material{
				ID:          id,
				OwnerID:     uuid.New(),
				Type:        "plastic",
				Quantity:    "5 bags",
				Status:      model.MaterialStatusReserved,
				CollectorID: &collectorID,
			}, nil)

		w := doRequest(env, http.MethodPost, "/materials/"+id.String()+"/reserve",
			token(t, collectorID, model.UserRoleCollector), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"reserved"`)
	})

	t.Run("losing the race yields 400", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()
		collectorID := uuid.New()

		env.txRepo.On("TransitionMaterialWithEvent", mock.Anything, id,
			[]model.MaterialStatus{model.MaterialStatusAvailable},
			model.MaterialStatusReserved, collectorID, mock.Anything).
			Return(nil, repository.ErrConflict)

		w := doRequest(env, http.MethodPost, "/materials/"+id.String()+"/reserve",
			token(t, collectorID, model.UserRoleCollector), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no longer available")
	})
}

func TestNearbyMaterialsEndpoint(t *testing.T) {
	t.Run("missing coordinates yield 400", func(t *testing.T) {
		env := newTestEnv(t)

		w := doRequest(env, http.MethodGet, "/materials/nearby?latitude=-23.55", "", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns materials with rounded distances", func(t *testing.T) {
		env := newTestEnv(t)
		lat := -23.5510
		lng := -46.6340

		env.repo.On("List", mock.Anything, mock.Anything).Return([]*model.Material{
			{
				ID:        uuid.New(),
				OwnerID:   uuid.New(),
				Type:      "plastic",
				Quantity:  "5 bags",
				Latitude:  &lat,
				Longitude: &lng,
				Status:    model.MaterialStatusAvailable,
			},
		}, nil)

		w := doRequest(env, http.MethodGet, "/materials/nearby?latitude=-23.5505&longitude=-46.6333", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Materials []struct {
				DistanceKm float64 `json:"distance_km"`
			} `json:"materials"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Materials, 1)
		assert.Less(t, resp.Materials[0].DistanceKm, 1.0)
		// rounded to two decimals
		assert.Equal(t, resp.Materials[0].DistanceKm, float64(int(resp.Materials[0].DistanceKm*100))/100)
	})
}

func TestCollectorEndpoints(t *testing.T) {
	t.Run("lists collectors publicly", func(t *testing.T) {
		env := newTestEnv(t)

		env.userRepo.On("ListCollectors", mock.Anything).Return([]*model.User{
			{ID: uuid.New(), Name: "Maria", Role: model.UserRoleCollector},
		}, nil)

		w := doRequest(env, http.MethodGet, "/collectors", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Maria")
	})

	t.Run("collector may not move another collector", func(t *testing.T) {
		env := newTestEnv(t)
		otherID := uuid.New()

		w := doRequest(env, http.MethodPut, "/collectors/"+otherID.String()+"/location",
			token(t, uuid.New(), model.UserRoleCollector), gin.H{"latitude": 1.0, "longitude": 2.0})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("collector updates own location", func(t *testing.T) {
		env := newTestEnv(t)
		collectorID := uuid.New()

		env.userRepo.On("UpdateLocation", mock.Anything, collectorID, mock.Anything, mock.Anything).
			Return(nil)

		w := doRequest(env, http.MethodPut, "/collectors/"+collectorID.String()+"/location",
			token(t, collectorID, model.UserRoleCollector), gin.H{"latitude": -23.55, "longitude": -46.63})

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
