package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/handler"
	"github.com/noah-isme/portion-tracker-api/internal/middleware"
	"github.com/noah-isme/portion-tracker-api/internal/service"
)

type emptyDepartments struct{}

func (emptyDepartments) List(context.Context) ([]dto.DepartmentResponse, error) {
	return []dto.DepartmentResponse{}, nil
}

func (emptyDepartments) Create(context.Context, service.Actor, dto.DepartmentRequest) (dto.DepartmentResponse, error) {
	return dto.DepartmentResponse{}, nil
}

func (emptyDepartments) Update(context.Context, service.Actor, uint, dto.DepartmentRequest) (dto.DepartmentResponse, error) {
	return dto.DepartmentResponse{}, nil
}

func (emptyDepartments) Delete(context.Context, service.Actor, uint) error {
	return nil
}

func TestRegisterGuardsAPIButNotHealth(t *testing.T) {
	app := fiber.New()
	Register(app, Info{Name: "Portion Tracker API", Env: "test", Location: time.UTC}, Dependencies{
		Departments:   handler.NewDepartmentHandler(emptyDepartments{}, zerolog.Nop()),
		JWTMiddleware: middleware.JWTProtected("secret"),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Portion Tracker API", resp.Header.Get("X-Application"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/departments", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
