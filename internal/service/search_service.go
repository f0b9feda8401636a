package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

const (
	searchUserLimit       = 5
	searchSubjectLimit    = 5
	searchDepartmentLimit = 3
	searchPortionLimit    = 5
)

// SearchService backs the global search box.
type SearchService interface {
	Search(ctx context.Context, actor Actor, req dto.SearchRequest) (dto.SearchResponse, error)
}

type searchService struct {
	repo      repository.SearchRepository
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSearchService constructs the search service.
func NewSearchService(repo repository.SearchRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) SearchService {
	return &searchService{
		repo:      repo,
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "search_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/portion-tracker-api/internal/service/search"),
	}
}

// Search matches the term against users, subjects, departments and
// portions. Users are only searched for actors who manage users; subjects
// and portions follow the same visibility as the progress views.
func (s *searchService) Search(ctx context.Context, actor Actor, req dto.SearchRequest) (dto.SearchResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SearchResponse{}, err
	}

	term := strings.TrimSpace(req.Query)
	response := dto.SearchResponse{Query: term, Results: []dto.SearchResult{}}
	if term == "" {
		return response, nil
	}

	scope, err := subjectScope(ctx, s.users, actor)
	if err != nil {
		return dto.SearchResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "search.global", trace.WithAttributes(attribute.String("search.role", string(actor.Role))))
	defer span.End()

	var (
		users       []models.User
		subjects    []models.Subject
		departments []models.Department
		portions    []repository.PortionMatch
	)

	group, gctx := errgroup.WithContext(ctx)
	if actor.Can(models.CapabilityManageUsers) {
		group.Go(func() error {
			var err error
			users, err = s.repo.Users(gctx, term, searchUserLimit)
			return err
		})
	}
	group.Go(func() error {
		var err error
		subjects, err = s.repo.Subjects(gctx, term, scope, searchSubjectLimit)
		return err
	})
	group.Go(func() error {
		var err error
		departments, err = s.repo.Departments(gctx, term, searchDepartmentLimit)
		return err
	})
	group.Go(func() error {
		var err error
		portions, err = s.repo.Portions(gctx, term, scope, searchPortionLimit)
		return err
	})
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Msg("global search failed")
		return dto.SearchResponse{}, err
	}

	for _, user := range users {
		response.Results = append(response.Results, dto.SearchResult{
			Type:     "user",
			ID:       user.ID,
			Title:    user.FullName(),
			Subtitle: string(user.Role) + " • " + user.Email,
		})
	}
	for _, subject := range subjects {
		department := subject.Department.Name
		if department == "" {
			department = "No department"
		}
		response.Results = append(response.Results, dto.SearchResult{
			Type:     "subject",
			ID:       subject.ID,
			Title:    subject.Name,
			Subtitle: subject.Code + " • " + department,
		})
	}
	for _, department := range departments {
		response.Results = append(response.Results, dto.SearchResult{
			Type:     "department",
			ID:       department.ID,
			Title:    department.Name,
			Subtitle: department.Code,
		})
	}
	for _, portion := range portions {
		response.Results = append(response.Results, dto.SearchResult{
			Type:     "portion",
			ID:       portion.ID,
			Title:    portion.Name,
			Subtitle: portion.SubjectName,
		})
	}

	span.SetAttributes(attribute.Int("search.results", len(response.Results)))
	return response, nil
}
