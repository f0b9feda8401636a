package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/service"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload envelope
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

// newApp mounts register under /api/v1 behind a fake authentication step
// that stores the given identity the way JWTProtected does.
func newApp(id uint, role models.Role, register func(fiber.Router)) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		c.Locals("user_role", role)
		return c.Next()
	})
	register(group)
	return app
}

type stubProgressService struct {
	lastActor   service.Actor
	lastRequest dto.PortionListRequest
	institution dto.InstitutionDashboardResponse
	facilitator dto.FacilitatorDashboardResponse
	portions    []dto.PortionResponse
	err         error
}

func (s *stubProgressService) InstitutionDashboard(context.Context) (dto.InstitutionDashboardResponse, error) {
	return s.institution, s.err
}

func (s *stubProgressService) FacilitatorDashboard(_ context.Context, actor service.Actor) (dto.FacilitatorDashboardResponse, error) {
	s.lastActor = actor
	return s.facilitator, s.err
}

func (s *stubProgressService) StudentDashboard(_ context.Context, actor service.Actor) (dto.StudentDashboardResponse, error) {
	s.lastActor = actor
	return dto.StudentDashboardResponse{}, s.err
}

func (s *stubProgressService) SubjectProgress(_ context.Context, actor service.Actor, _ *uint) ([]dto.SubjectProgress, error) {
	s.lastActor = actor
	return nil, s.err
}

func (s *stubProgressService) DepartmentProgress(context.Context) ([]dto.DepartmentProgress, error) {
	return nil, s.err
}

func (s *stubProgressService) FacilitatorProgress(context.Context) ([]dto.FacilitatorProgress, error) {
	return nil, s.err
}

func (s *stubProgressService) ListPortions(_ context.Context, actor service.Actor, req dto.PortionListRequest) ([]dto.PortionResponse, error) {
	s.lastActor = actor
	s.lastRequest = req
	return s.portions, s.err
}

type stubCurriculumService struct {
	lastPortionID uint
	lastPayload   dto.PortionCompletionRequest
	portion       dto.PortionResponse
	err           error
}

func (s *stubCurriculumService) CreateSubject(context.Context, service.Actor, dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	return dto.SubjectResponse{}, s.err
}

func (s *stubCurriculumService) CreatePortion(context.Context, service.Actor, uint, dto.PortionCreateRequest) (dto.PortionResponse, error) {
	return s.portion, s.err
}

func (s *stubCurriculumService) SetPortionCompletion(_ context.Context, _ service.Actor, id uint, payload dto.PortionCompletionRequest) (dto.PortionResponse, error) {
	s.lastPortionID = id
	s.lastPayload = payload
	return s.portion, s.err
}

type stubSubmissionService struct {
	lastKind     models.SubmissionKind
	lastEntityID uint
	lastPayload  dto.SubmissionUpsertRequest
	lastFile     *multipart.FileHeader
	response     dto.SubmissionResponse
	err          error
}

func (s *stubSubmissionService) Submit(_ context.Context, _ service.Actor, kind models.SubmissionKind, entityID uint, payload dto.SubmissionUpsertRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	s.lastKind = kind
	s.lastEntityID = entityID
	s.lastPayload = payload
	s.lastFile = file
	return s.response, s.err
}

func (s *stubSubmissionService) Verify(_ context.Context, _ service.Actor, kind models.SubmissionKind, _ uint, _ dto.SubmissionVerifyRequest) (dto.SubmissionResponse, error) {
	s.lastKind = kind
	return s.response, s.err
}

func (s *stubSubmissionService) List(_ context.Context, _ service.Actor, kind models.SubmissionKind, _ dto.SubmissionListRequest) ([]dto.SubmissionResponse, error) {
	s.lastKind = kind
	return nil, s.err
}

type stubLeaderboardService struct {
	response dto.LeaderboardResponse
}

func (s stubLeaderboardService) Leaderboard(_ context.Context, kind models.SubmissionKind) (dto.LeaderboardResponse, error) {
	response := s.response
	response.Kind = string(kind)
	return response, nil
}

type stubDepartmentService struct {
	err error
}

func (s stubDepartmentService) List(context.Context) ([]dto.DepartmentResponse, error) {
	return []dto.DepartmentResponse{{ID: 1, Name: "Cardiac Technology", Code: "CT", SubjectCount: 2}}, s.err
}

func (s stubDepartmentService) Create(_ context.Context, _ service.Actor, payload dto.DepartmentRequest) (dto.DepartmentResponse, error) {
	return dto.DepartmentResponse{ID: 2, Name: payload.Name, Code: payload.Code}, s.err
}

func (s stubDepartmentService) Update(_ context.Context, _ service.Actor, id uint, payload dto.DepartmentRequest) (dto.DepartmentResponse, error) {
	return dto.DepartmentResponse{ID: id, Name: payload.Name, Code: payload.Code}, s.err
}

func (s stubDepartmentService) Delete(context.Context, service.Actor, uint) error {
	return s.err
}
