package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/observability"
	"github.com/noah-isme/portion-tracker-api/internal/progress"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

// ProgressOptions tunes the dashboard calculations.
type ProgressOptions struct {
	Location           *time.Location
	UpcomingWindowDays int
	UpcomingLimit      int
}

// ProgressService builds the read-only progress views. Every call refetches
// its collections; a failed read is logged and treated as empty.
type ProgressService interface {
	InstitutionDashboard(ctx context.Context) (dto.InstitutionDashboardResponse, error)
	FacilitatorDashboard(ctx context.Context, actor Actor) (dto.FacilitatorDashboardResponse, error)
	StudentDashboard(ctx context.Context, actor Actor) (dto.StudentDashboardResponse, error)
	SubjectProgress(ctx context.Context, actor Actor, departmentID *uint) ([]dto.SubjectProgress, error)
	DepartmentProgress(ctx context.Context) ([]dto.DepartmentProgress, error)
	FacilitatorProgress(ctx context.Context) ([]dto.FacilitatorProgress, error)
	ListPortions(ctx context.Context, actor Actor, req dto.PortionListRequest) ([]dto.PortionResponse, error)
}

type progressService struct {
	years       repository.AcademicYearRepository
	subjects    repository.SubjectRepository
	departments repository.DepartmentRepository
	users       repository.UserRepository
	options     ProgressOptions
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewProgressService wires the progress read model.
func NewProgressService(years repository.AcademicYearRepository, subjects repository.SubjectRepository, departments repository.DepartmentRepository, users repository.UserRepository, options ProgressOptions, logger zerolog.Logger) ProgressService {
	if options.Location == nil {
		options.Location = time.Local
	}
	if options.UpcomingWindowDays <= 0 {
		options.UpcomingWindowDays = progress.DefaultUpcomingWindowDays
	}

	return &progressService{
		years:       years,
		subjects:    subjects,
		departments: departments,
		users:       users,
		options:     options,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/portion-tracker-api/internal/service/progress"),
		now:         time.Now,
	}
}

// trackedPortion keeps a portion next to the subject it belongs to so that
// deadline rows can be labelled after classification.
type trackedPortion struct {
	models.Portion
	subject *models.Subject
}

func (s *progressService) today() time.Time {
	return s.now().In(s.options.Location)
}

func (s *progressService) observe(dashboard string, started time.Time) {
	observability.DashboardBuild().WithLabelValues(dashboard).Observe(time.Since(started).Seconds())
}

// activeYear returns nil when no academic year is active or the lookup fails.
func (s *progressService) activeYear(ctx context.Context) *models.AcademicYear {
	year, err := s.years.GetActive(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNoActiveAcademicYear) {
			s.logger.Warn().Err(err).Msg("failed to load active academic year")
		}
		return nil
	}
	return &year
}

func (s *progressService) loadSubjects(ctx context.Context, year *models.AcademicYear, filter repository.SubjectFilter) []models.Subject {
	if year == nil {
		return []models.Subject{}
	}
	filter.AcademicYearID = &year.ID
	subjects, err := s.subjects.List(ctx, filter)
	subjects = degrade(s.logger, "subjects", subjects, err)
	s.reportUndated(subjects)
	return subjects
}

func (s *progressService) reportUndated(subjects []models.Subject) {
	for _, subject := range subjects {
		for _, portion := range progress.Undated(subject.Portions) {
			s.logger.Warn().
				Uint("portion_id", portion.ID).
				Uint("subject_id", subject.ID).
				Msg("portion has no planned date; treating as pending")
		}
	}
}

func (s *progressService) InstitutionDashboard(ctx context.Context) (dto.InstitutionDashboardResponse, error) {
	defer s.observe("institution", time.Now())
	ctx, span := s.tracer.Start(ctx, "progress.institution_dashboard")
	defer span.End()

	var (
		year         *models.AcademicYear
		subjects     []models.Subject
		departments  []models.Department
		facilitators []models.User
	)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		year = s.activeYear(gctx)
		subjects = s.loadSubjects(gctx, year, repository.SubjectFilter{})
		return nil
	})
	group.Go(func() error {
		items, err := s.departments.List(gctx)
		departments = degrade(s.logger, "departments", items, err)
		return nil
	})
	group.Go(func() error {
		facilitators = s.loadFacilitators(gctx)
		return nil
	})
	if err := group.Wait(); err != nil {
		return dto.InstitutionDashboardResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return dto.InstitutionDashboardResponse{}, err
	}

	today := s.today()
	tracked := trackAll(subjects)

	response := dto.InstitutionDashboardResponse{
		DepartmentCount:  len(departments),
		FacilitatorCount: len(facilitators),
		SubjectCount:     len(subjects),
		Departments:      []dto.DepartmentProgress{},
		Facilitators:     []dto.FacilitatorProgress{},
		Overdue:          []dto.OverdueResponse{},
	}
	if year == nil {
		return response, nil
	}

	yearResponse := dto.NewAcademicYearResponse(*year)
	response.AcademicYear = &yearResponse
	response.Overall = progress.Aggregate(tracked, today)
	response.Departments = buildDepartmentProgress(departments, subjects, facilitators, today)
	response.Facilitators = buildFacilitatorProgress(facilitators, subjects, today)
	response.Overdue = buildOverdue(tracked, today)

	span.SetAttributes(
		attribute.Int("progress.subjects", len(subjects)),
		attribute.Int("progress.portions", len(tracked)),
	)
	return response, nil
}

func (s *progressService) FacilitatorDashboard(ctx context.Context, actor Actor) (dto.FacilitatorDashboardResponse, error) {
	defer s.observe("facilitator", time.Now())
	ctx, span := s.tracer.Start(ctx, "progress.facilitator_dashboard", trace.WithAttributes(attribute.Int64("progress.facilitator_id", int64(actor.ID))))
	defer span.End()

	year := s.activeYear(ctx)
	subjects := s.loadSubjects(ctx, year, repository.SubjectFilter{FacilitatorID: &actor.ID})
	if err := ctx.Err(); err != nil {
		return dto.FacilitatorDashboardResponse{}, err
	}

	today := s.today()
	tracked := trackAll(subjects)
	overall := progress.Aggregate(tracked, today)

	response := dto.FacilitatorDashboardResponse{
		Overall:  overall,
		Pending:  overall.Pending(),
		Subjects: buildSubjectProgress(subjects, today),
		Upcoming: buildUpcoming(tracked, today, s.options.UpcomingWindowDays, s.options.UpcomingLimit),
	}
	if year != nil {
		yearResponse := dto.NewAcademicYearResponse(*year)
		response.AcademicYear = &yearResponse
	}
	return response, nil
}

func (s *progressService) StudentDashboard(ctx context.Context, actor Actor) (dto.StudentDashboardResponse, error) {
	defer s.observe("student", time.Now())
	ctx, span := s.tracer.Start(ctx, "progress.student_dashboard", trace.WithAttributes(attribute.Int64("progress.student_id", int64(actor.ID))))
	defer span.End()

	var (
		year    *models.AcademicYear
		student models.User
		found   bool
	)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		year = s.activeYear(gctx)
		return nil
	})
	group.Go(func() error {
		user, err := s.users.GetByID(gctx, actor.ID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("user_id", actor.ID).Msg("failed to load student profile")
			return nil
		}
		student, found = user, true
		return nil
	})
	if err := group.Wait(); err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	subjects := []models.Subject{}
	if found && student.DepartmentID != nil {
		subjects = s.loadSubjects(ctx, year, repository.SubjectFilter{DepartmentID: student.DepartmentID})
	}
	if err := ctx.Err(); err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	today := s.today()
	tracked := trackAll(subjects)

	response := dto.StudentDashboardResponse{
		Overall:  progress.Aggregate(tracked, today),
		Subjects: buildSubjectProgress(subjects, today),
		Upcoming: buildUpcoming(tracked, today, s.options.UpcomingWindowDays, s.options.UpcomingLimit),
	}
	if year != nil {
		yearResponse := dto.NewAcademicYearResponse(*year)
		response.AcademicYear = &yearResponse
	}
	return response, nil
}

func (s *progressService) SubjectProgress(ctx context.Context, actor Actor, departmentID *uint) ([]dto.SubjectProgress, error) {
	filter, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if departmentID != nil && filter.DepartmentID == nil {
		filter.DepartmentID = departmentID
	}

	subjects := s.loadSubjects(ctx, s.activeYear(ctx), filter)
	return buildSubjectProgress(subjects, s.today()), nil
}

func (s *progressService) DepartmentProgress(ctx context.Context) ([]dto.DepartmentProgress, error) {
	var (
		subjects     []models.Subject
		departments  []models.Department
		facilitators []models.User
	)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		subjects = s.loadSubjects(gctx, s.activeYear(gctx), repository.SubjectFilter{})
		return nil
	})
	group.Go(func() error {
		items, err := s.departments.List(gctx)
		departments = degrade(s.logger, "departments", items, err)
		return nil
	})
	group.Go(func() error {
		facilitators = s.loadFacilitators(gctx)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return buildDepartmentProgress(departments, subjects, facilitators, s.today()), nil
}

func (s *progressService) FacilitatorProgress(ctx context.Context) ([]dto.FacilitatorProgress, error) {
	var (
		subjects     []models.Subject
		facilitators []models.User
	)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		subjects = s.loadSubjects(gctx, s.activeYear(gctx), repository.SubjectFilter{})
		return nil
	})
	group.Go(func() error {
		facilitators = s.loadFacilitators(gctx)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return buildFacilitatorProgress(facilitators, subjects, s.today()), nil
}

func (s *progressService) ListPortions(ctx context.Context, actor Actor, req dto.PortionListRequest) ([]dto.PortionResponse, error) {
	filter, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if req.DepartmentID != nil && filter.DepartmentID == nil {
		filter.DepartmentID = req.DepartmentID
	}

	subjects := s.loadSubjects(ctx, s.activeYear(ctx), filter)
	today := s.today()
	search := strings.ToLower(strings.TrimSpace(req.Search))

	result := make([]dto.PortionResponse, 0)
	for i := range subjects {
		subject := subjects[i]
		if req.SubjectID != nil && subject.ID != *req.SubjectID {
			continue
		}
		for _, portion := range subject.Portions {
			status := progress.Classify(portion, today)
			if !matchesStatus(status, req.Status) || !matchesSearch(portion, search) {
				continue
			}
			result = append(result, dto.NewPortionResponse(portion, subject.Name, status))
		}
	}
	return result, nil
}

func (s *progressService) scopeFor(ctx context.Context, actor Actor) (repository.SubjectFilter, error) {
	return subjectScope(ctx, s.users, actor)
}

func (s *progressService) loadFacilitators(ctx context.Context) []models.User {
	role := models.RoleFacilitator
	users, err := s.users.List(ctx, repository.UserFilter{Role: &role, ActiveOnly: true})
	return degrade(s.logger, "facilitators", users, err)
}

// matchesStatus treats "pending" as anything not completed and not overdue,
// so due-today portions show up under pending too.
func matchesStatus(status progress.Status, wanted string) bool {
	switch wanted {
	case "":
		return true
	case string(progress.StatusPending):
		return status == progress.StatusPending || status == progress.StatusDueToday
	default:
		return string(status) == wanted
	}
}

func matchesSearch(portion models.Portion, search string) bool {
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(portion.Name), search) {
		return true
	}
	return portion.Description != nil && strings.Contains(strings.ToLower(*portion.Description), search)
}

func trackAll(subjects []models.Subject) []trackedPortion {
	return progress.FlatMap(subjectRefs(subjects), trackSubject)
}

func trackSubject(subject *models.Subject) []trackedPortion {
	tracked := make([]trackedPortion, 0, len(subject.Portions))
	for _, portion := range subject.Portions {
		tracked = append(tracked, trackedPortion{Portion: portion, subject: subject})
	}
	return tracked
}

func subjectRefs(subjects []models.Subject) []*models.Subject {
	refs := make([]*models.Subject, 0, len(subjects))
	for i := range subjects {
		refs = append(refs, &subjects[i])
	}
	return refs
}

func buildSubjectProgress(subjects []models.Subject, today time.Time) []dto.SubjectProgress {
	result := make([]dto.SubjectProgress, 0, len(subjects))
	for _, subject := range subjects {
		summary := progress.Aggregate(subject.Portions, today)
		result = append(result, dto.SubjectProgress{
			SubjectID:       subject.ID,
			Name:            subject.Name,
			Code:            subject.Code,
			DepartmentID:    subject.DepartmentID,
			DepartmentName:  subject.Department.Name,
			FacilitatorID:   subject.FacilitatorID,
			FacilitatorName: subject.Facilitator.FullName(),
			Summary:         summary,
			Pending:         summary.Pending(),
		})
	}
	progress.SortByPercentage(result, func(item dto.SubjectProgress) float64 { return float64(item.Percentage) })
	return result
}

// rollup is the folded state of one group of subjects.
type rollup struct {
	subjects int
	summary  progress.Summary
}

func rollupBy(subjects []models.Subject, today time.Time, key func(*models.Subject) uint) map[uint]rollup {
	groups := progress.GroupBy(subjectRefs(subjects), key)
	return progress.Index(progress.MapValues(groups, func(_ uint, group []*models.Subject) rollup {
		return rollup{
			subjects: len(group),
			summary:  progress.Aggregate(progress.FlatMap(group, trackSubject), today),
		}
	}))
}

// buildDepartmentProgress folds every portion of a department's subjects.
// Departments without portions are left out.
func buildDepartmentProgress(departments []models.Department, subjects []models.Subject, facilitators []models.User, today time.Time) []dto.DepartmentProgress {
	rollups := rollupBy(subjects, today, func(subject *models.Subject) uint { return subject.DepartmentID })

	result := make([]dto.DepartmentProgress, 0, len(departments))
	for _, department := range departments {
		folded := rollups[department.ID]
		if folded.summary.Total == 0 {
			continue
		}
		result = append(result, dto.DepartmentProgress{
			DepartmentID:     department.ID,
			Name:             department.Name,
			Code:             department.Code,
			SubjectCount:     folded.subjects,
			FacilitatorCount: countFacilitators(facilitators, department.ID),
			Summary:          folded.summary,
		})
	}
	progress.SortByPercentage(result, func(item dto.DepartmentProgress) float64 { return float64(item.Percentage) })
	return result
}

// buildFacilitatorProgress folds every portion of the subjects each
// facilitator teaches. Facilitators without portions are left out.
func buildFacilitatorProgress(facilitators []models.User, subjects []models.Subject, today time.Time) []dto.FacilitatorProgress {
	rollups := rollupBy(subjects, today, func(subject *models.Subject) uint { return subject.FacilitatorID })

	result := make([]dto.FacilitatorProgress, 0, len(facilitators))
	for _, facilitator := range facilitators {
		folded := rollups[facilitator.ID]
		if folded.summary.Total == 0 {
			continue
		}
		result = append(result, dto.FacilitatorProgress{
			FacilitatorID: facilitator.ID,
			Name:          facilitator.FullName(),
			Email:         facilitator.Email,
			SubjectCount:  folded.subjects,
			Summary:       folded.summary,
			Pending:       folded.summary.Pending(),
		})
	}
	progress.SortByPercentage(result, func(item dto.FacilitatorProgress) float64 { return float64(item.Percentage) })
	return result
}

func countFacilitators(facilitators []models.User, departmentID uint) int {
	count := 0
	for _, facilitator := range facilitators {
		if facilitator.DepartmentID != nil && *facilitator.DepartmentID == departmentID {
			count++
			continue
		}
		for _, linked := range facilitator.Departments {
			if linked.ID == departmentID {
				count++
				break
			}
		}
	}
	return count
}

func buildUpcoming(tracked []trackedPortion, today time.Time, windowDays, limit int) []dto.DeadlineResponse {
	deadlines := progress.Upcoming(tracked, today, windowDays)
	if limit > 0 && len(deadlines) > limit {
		deadlines = deadlines[:limit]
	}

	result := make([]dto.DeadlineResponse, 0, len(deadlines))
	for _, deadline := range deadlines {
		result = append(result, dto.DeadlineResponse{
			PortionID:   deadline.Item.ID,
			PortionName: deadline.Item.Name,
			SubjectID:   deadline.Item.subject.ID,
			SubjectName: deadline.Item.subject.Name,
			PlannedDate: deadline.PlannedDate,
			DaysUntil:   deadline.DaysUntil,
			Label:       progress.DeadlineLabel(deadline.DaysUntil),
		})
	}
	return result
}

func buildOverdue(tracked []trackedPortion, today time.Time) []dto.OverdueResponse {
	lapses := progress.Overdue(tracked, today)
	result := make([]dto.OverdueResponse, 0, len(lapses))
	for _, lapse := range lapses {
		result = append(result, dto.OverdueResponse{
			PortionID:       lapse.Item.ID,
			PortionName:     lapse.Item.Name,
			SubjectID:       lapse.Item.subject.ID,
			SubjectName:     lapse.Item.subject.Name,
			FacilitatorName: lapse.Item.subject.Facilitator.FullName(),
			PlannedDate:     lapse.PlannedDate,
			DaysOverdue:     lapse.DaysOverdue,
		})
	}
	return result
}
