package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/handler"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/service"
)

type stubActivityService struct {
	lastList       dto.ActivityListRequest
	lastEntityType string
	lastEntityID   uint
	lastDays       int
}

func (s *stubActivityService) Record(context.Context, service.ActivityEntry) (dto.ActivityResponse, error) {
	return dto.ActivityResponse{}, nil
}

func (s *stubActivityService) List(_ context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	s.lastList = req
	return dto.ActivityListResponse{Items: []dto.ActivityResponse{}}, nil
}

func (s *stubActivityService) History(_ context.Context, entityType string, entityID uint) ([]dto.ActivityResponse, error) {
	s.lastEntityType = entityType
	s.lastEntityID = entityID
	if strings.TrimSpace(entityType) == "" {
		return nil, service.ErrEntityTypeRequired
	}
	return []dto.ActivityResponse{{Action: "portion.completed", EntityType: entityType, EntityID: &entityID}}, nil
}

func (s *stubActivityService) Summary(_ context.Context, days int) (dto.ActivitySummaryResponse, error) {
	s.lastDays = days
	return dto.ActivitySummaryResponse{Days: days, Total: 2, Actions: []dto.ActionCountResponse{{Action: "portion.completed", Total: 2}}}, nil
}

func activityApp(role models.Role, svc *stubActivityService) *fiber.App {
	return newApp(1, role, func(r fiber.Router) {
		handler.NewActivityHandler(svc, zerolog.Nop()).Register(r.Group("/activity"))
	})
}

func TestActivityHandler_RequiresAuditCapability(t *testing.T) {
	resp, err := activityApp(models.RoleFacilitator, &stubActivityService{}).Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity/summary", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestActivityHandler_ListPassesFilters(t *testing.T) {
	svc := &stubActivityService{}
	resp, err := activityApp(models.RoleAdmin, svc).Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity?entity_type=portion&entity_id=4&since_days=3&page=2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "portion", svc.lastList.EntityType)
	require.Equal(t, uint(4), svc.lastList.EntityID)
	require.Equal(t, 3, svc.lastList.SinceDays)
	require.Equal(t, 2, svc.lastList.Page)

	resp, err = activityApp(models.RoleAdmin, svc).Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity?entity_id=-1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestActivityHandler_SummaryAndHistory(t *testing.T) {
	svc := &stubActivityService{}
	app := activityApp(models.RoleSuperAdmin, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity/summary?days=14", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 14, svc.lastDays)

	var summary dto.ActivitySummaryResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &summary))
	require.Equal(t, int64(2), summary.Total)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity/portion/9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "portion", svc.lastEntityType)
	require.Equal(t, uint(9), svc.lastEntityID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/activity/portion/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
