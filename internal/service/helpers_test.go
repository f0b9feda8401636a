package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

var fixedNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func day(y int, m time.Month, d int) *time.Time {
	value := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &value
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrString(v string) *string {
	return &v
}

func ptrFloat(v float64) *float64 {
	return &v
}

type campus struct {
	cardiac     models.Department
	dialysis    models.Department
	empty       models.Department
	year        models.AcademicYear
	fay         models.User
	gus         models.User
	admin       models.User
	student     models.User
	anatomy     models.Subject
	physiology  models.Subject
	nephrology  models.Subject
	actorFay    Actor
	actorGus    Actor
	actorAdmin  Actor
	actorSam    Actor
	repos       repos
	publisher   *recordingPublisher
	activityLog *memoryActivityRepo
}

type repos struct {
	years       repository.AcademicYearRepository
	subjects    repository.SubjectRepository
	portions    repository.PortionRepository
	departments repository.DepartmentRepository
	users       repository.UserRepository
	coursework  repository.CourseworkRepository
	submissions repository.SubmissionRepository
}

func newRepos(db *gorm.DB) repos {
	return repos{
		years:       repository.NewAcademicYearRepository(db),
		subjects:    repository.NewSubjectRepository(db),
		portions:    repository.NewPortionRepository(db),
		departments: repository.NewDepartmentRepository(db),
		users:       repository.NewUserRepository(db),
		coursework:  repository.NewCourseworkRepository(db),
		submissions: repository.NewSubmissionRepository(db),
	}
}

// seedCampus builds two staffed departments plus one without subjects.
// Relative to fixedNow, anatomy has one completed, one overdue, one due
// today and one upcoming portion; physiology is fully completed; nephrology
// has one portion eight days out.
func seedCampus(t *testing.T, db *gorm.DB) campus {
	t.Helper()
	c := campus{
		cardiac:  models.Department{Name: "Cardiac Technology", Code: "CT"},
		dialysis: models.Department{Name: "Dialysis Technology", Code: "DT"},
		empty:    models.Department{Name: "Radiology", Code: "RIT"},
		year: models.AcademicYear{
			Name:      "2023-2024",
			StartDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
			IsActive:  true,
		},
	}
	for _, department := range []*models.Department{&c.cardiac, &c.dialysis, &c.empty} {
		require.NoError(t, db.Create(department).Error)
	}
	require.NoError(t, db.Create(&c.year).Error)

	c.fay = models.User{Email: "fay@example.com", FirstName: "Fay", LastName: "Cole", Role: models.RoleFacilitator, DepartmentID: &c.cardiac.ID, IsActive: true}
	c.gus = models.User{Email: "gus@example.com", FirstName: "Gus", LastName: "Hale", Role: models.RoleFacilitator, DepartmentID: &c.dialysis.ID, IsActive: true}
	c.admin = models.User{Email: "ada@example.com", FirstName: "Ada", LastName: "Park", Role: models.RoleAdmin, IsActive: true}
	c.student = models.User{Email: "sam@example.com", FirstName: "Sam", LastName: "Lee", Role: models.RoleStudent, DepartmentID: &c.cardiac.ID, IsActive: true}
	for _, user := range []*models.User{&c.fay, &c.gus, &c.admin, &c.student} {
		require.NoError(t, db.Omit("Department", "Departments").Create(user).Error)
	}

	c.anatomy = models.Subject{Name: "Anatomy", Code: "AN", DepartmentID: c.cardiac.ID, AcademicYearID: c.year.ID, FacilitatorID: c.fay.ID}
	c.physiology = models.Subject{Name: "Physiology", Code: "PH", DepartmentID: c.cardiac.ID, AcademicYearID: c.year.ID, FacilitatorID: c.fay.ID}
	c.nephrology = models.Subject{Name: "Nephrology", Code: "NE", DepartmentID: c.dialysis.ID, AcademicYearID: c.year.ID, FacilitatorID: c.gus.ID}
	for _, subject := range []*models.Subject{&c.anatomy, &c.physiology, &c.nephrology} {
		require.NoError(t, db.Omit("Department", "AcademicYear", "Facilitator", "Portions").Create(subject).Error)
	}

	portions := []models.Portion{
		{SubjectID: c.anatomy.ID, Name: "Skeleton", SequenceOrder: 1, PlannedDate: day(2024, 1, 5), IsCompleted: true, CompletedDate: day(2024, 1, 5)},
		{SubjectID: c.anatomy.ID, Name: "Muscles", SequenceOrder: 2, PlannedDate: day(2024, 1, 10), Description: ptrString("Skeletal muscle groups")},
		{SubjectID: c.anatomy.ID, Name: "Heart chambers", SequenceOrder: 3, PlannedDate: day(2024, 1, 15)},
		{SubjectID: c.anatomy.ID, Name: "Valves", SequenceOrder: 4, PlannedDate: day(2024, 1, 18)},
		{SubjectID: c.physiology.ID, Name: "Homeostasis", SequenceOrder: 1, PlannedDate: day(2024, 1, 2), IsCompleted: true, CompletedDate: day(2024, 1, 3)},
		{SubjectID: c.nephrology.ID, Name: "Nephron", SequenceOrder: 1, PlannedDate: day(2024, 1, 23)},
	}
	for i := range portions {
		require.NoError(t, db.Create(&portions[i]).Error)
	}

	c.actorFay = Actor{ID: c.fay.ID, Role: models.RoleFacilitator}
	c.actorGus = Actor{ID: c.gus.ID, Role: models.RoleFacilitator}
	c.actorAdmin = Actor{ID: c.admin.ID, Role: models.RoleAdmin}
	c.actorSam = Actor{ID: c.student.ID, Role: models.RoleStudent}
	c.repos = newRepos(db)
	c.publisher = &recordingPublisher{}
	c.activityLog = &memoryActivityRepo{}
	return c
}

func (c campus) activity() ActivityService {
	return NewActivityService(c.activityLog, testLogger())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}

type memoryActivityRepo struct {
	mu      sync.Mutex
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func (m *memoryActivityRepo) Timeline(ctx context.Context, entityType string, entityID uint) ([]models.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActivityLog
	for _, entry := range m.entries {
		if entry.EntityType == entityType && entry.EntityID != nil && *entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *memoryActivityRepo) CountByAction(ctx context.Context, since time.Time) ([]repository.ActionCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.ActionCount
	for _, entry := range m.entries {
		if entry.CreatedAt.Before(since) {
			continue
		}
		found := false
		for i := range out {
			if out[i].Action == entry.Action {
				out[i].Total++
				found = true
			}
		}
		if !found {
			out = append(out, repository.ActionCount{Action: entry.Action, Total: 1})
		}
	}
	return out, nil
}

func (m *memoryActivityRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry.Action)
	}
	return out
}

func subjectNames(items []dto.SubjectProgress) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}
