package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fixture struct {
	department  models.Department
	year        models.AcademicYear
	facilitator models.User
	student     models.User
	subject     models.Subject
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		department: models.Department{Name: "Cardiac Technology", Code: "BSC-CT"},
		year: models.AcademicYear{
			Name:      "2023-2024",
			StartDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
			IsActive:  true,
		},
	}
	require.NoError(t, db.Create(&f.department).Error)
	require.NoError(t, db.Create(&f.year).Error)

	f.facilitator = models.User{Email: "fac@example.com", FirstName: "Fay", LastName: "Cole", Role: models.RoleFacilitator, DepartmentID: &f.department.ID, IsActive: true}
	f.student = models.User{Email: "stu@example.com", FirstName: "Sam", LastName: "Lee", Role: models.RoleStudent, DepartmentID: &f.department.ID, IsActive: true}
	require.NoError(t, db.Create(&f.facilitator).Error)
	require.NoError(t, db.Create(&f.student).Error)

	f.subject = models.Subject{Name: "Anatomy", Code: "AN101", DepartmentID: f.department.ID, AcademicYearID: f.year.ID, FacilitatorID: f.facilitator.ID}
	require.NoError(t, db.Omit("Department", "AcademicYear", "Facilitator").Create(&f.subject).Error)
	return f
}

func datePtr(y int, m time.Month, d int) *time.Time {
	value := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &value
}

func TestSubjectRepositoryListPreloadsOrderedPortions(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	require.NoError(t, db.Create(&models.Portion{SubjectID: f.subject.ID, Name: "Second", SequenceOrder: 2, PlannedDate: datePtr(2024, 1, 20)}).Error)
	require.NoError(t, db.Create(&models.Portion{SubjectID: f.subject.ID, Name: "First", SequenceOrder: 1, PlannedDate: datePtr(2024, 1, 10)}).Error)

	repo := NewSubjectRepository(db)
	subjects, err := repo.List(context.Background(), SubjectFilter{AcademicYearID: &f.year.ID, FacilitatorID: &f.facilitator.ID})
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	require.Equal(t, "Cardiac Technology", subjects[0].Department.Name)
	require.Equal(t, "Fay", subjects[0].Facilitator.FirstName)
	require.Len(t, subjects[0].Portions, 2)
	require.Equal(t, "First", subjects[0].Portions[0].Name)

	other := uint(9999)
	subjects, err = repo.List(context.Background(), SubjectFilter{DepartmentID: &other})
	require.NoError(t, err)
	require.Empty(t, subjects)
}

func TestPortionRepositorySetCompletion(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	portion := models.Portion{SubjectID: f.subject.ID, Name: "Heart", PlannedDate: datePtr(2024, 1, 15)}
	require.NoError(t, db.Create(&portion).Error)

	repo := NewPortionRepository(db)
	notes := "done early"
	require.NoError(t, repo.SetCompletion(context.Background(), portion.ID, true, datePtr(2024, 1, 14), &notes))

	stored, err := repo.GetByID(context.Background(), portion.ID)
	require.NoError(t, err)
	require.True(t, stored.IsCompleted)
	require.NotNil(t, stored.CompletedDate)
	require.Equal(t, "done early", *stored.Notes)

	require.NoError(t, repo.SetCompletion(context.Background(), portion.ID, false, nil, nil))
	stored, err = repo.GetByID(context.Background(), portion.ID)
	require.NoError(t, err)
	require.False(t, stored.IsCompleted)
	require.Nil(t, stored.CompletedDate)
	require.Nil(t, stored.Notes)

	require.ErrorIs(t, repo.SetCompletion(context.Background(), 4242, true, nil, nil), gorm.ErrRecordNotFound)
}

func TestAcademicYearRepositoryActivateKeepsSingleActive(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	next := models.AcademicYear{
		Name:      "2024-2025",
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
	}
	repo := NewAcademicYearRepository(db)
	require.NoError(t, repo.Create(context.Background(), &next))

	active, err := repo.GetActive(context.Background())
	require.NoError(t, err)
	require.Equal(t, f.year.ID, active.ID)

	require.NoError(t, repo.Activate(context.Background(), next.ID))

	var count int64
	require.NoError(t, db.Model(&models.AcademicYear{}).Where("is_active = ?", true).Count(&count).Error)
	require.Equal(t, int64(1), count)

	active, err = repo.GetActive(context.Background())
	require.NoError(t, err)
	require.Equal(t, next.ID, active.ID)

	require.Error(t, repo.Activate(context.Background(), 777))
}

func TestAcademicYearRepositoryNoActive(t *testing.T) {
	db := setupTestDB(t)
	_, err := NewAcademicYearRepository(db).GetActive(context.Background())
	require.ErrorIs(t, err, ErrNoActiveAcademicYear)
}

func TestSubmissionRepositoryUpsertOverwritesAndResetsVerification(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	assessment := models.Assessment{SubjectID: f.subject.ID, Number: 1, ScheduledDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), MaxMarks: 20}
	require.NoError(t, db.Omit("Subject").Create(&assessment).Error)

	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	marks := 12.0
	first, err := repo.Upsert(ctx, models.SubmissionKindAssessment, assessment.ID, f.student.ID, SubmissionFields{
		Amount: &marks, MaxAmount: 20, FileURL: "https://cdn.example.com/a.pdf", FileName: "a.pdf", SubmittedAt: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, "Sam", first.Student.FirstName)

	require.NoError(t, repo.SetVerification(ctx, models.SubmissionKindAssessment, first.ID, Verification{Verified: true, VerifierID: f.facilitator.ID, At: time.Now()}))

	verified, err := repo.ListVerified(ctx, models.SubmissionKindAssessment)
	require.NoError(t, err)
	require.Len(t, verified, 1)
	require.Equal(t, f.facilitator.ID, *verified[0].VerifiedBy)

	better := 18.0
	second, err := repo.Upsert(ctx, models.SubmissionKindAssessment, assessment.ID, f.student.ID, SubmissionFields{
		Amount: &better, MaxAmount: 20, FileURL: "https://cdn.example.com/b.pdf", FileName: "b.pdf", SubmittedAt: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.InDelta(t, 18.0, *second.Obtained, 1e-9)
	require.Equal(t, "b.pdf", second.FileName)
	require.False(t, second.Verified)
	require.Nil(t, second.VerifiedBy)

	all, err := repo.List(ctx, models.SubmissionKindAssessment, SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	verified, err = repo.ListVerified(ctx, models.SubmissionKindAssessment)
	require.NoError(t, err)
	require.Empty(t, verified)
}

func TestSubmissionRepositoryProjectVerificationAmount(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	project := models.Project{
		SubjectID: f.subject.ID, Type: models.ProjectTypeSeminar, Title: "Seminar",
		AssignedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), MaxScore: 50,
	}
	require.NoError(t, db.Omit("Subject").Create(&project).Error)

	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	notes := "slides attached"
	created, err := repo.Upsert(ctx, models.SubmissionKindProject, project.ID, f.student.ID, SubmissionFields{MaxAmount: 50, Notes: &notes, SubmittedAt: time.Now()})
	require.NoError(t, err)
	require.Nil(t, created.Obtained)
	require.Equal(t, "slides attached", *created.Notes)

	score := 41.0
	require.NoError(t, repo.SetVerification(ctx, models.SubmissionKindProject, created.ID, Verification{Verified: true, Amount: &score, VerifierID: f.facilitator.ID, At: time.Now()}))

	stored, err := repo.GetByID(ctx, models.SubmissionKindProject, created.ID)
	require.NoError(t, err)
	require.True(t, stored.Verified)
	require.InDelta(t, 41.0, *stored.Obtained, 1e-9)

	require.ErrorIs(t, repo.SetVerification(ctx, models.SubmissionKindProject, 999, Verification{}), gorm.ErrRecordNotFound)
}

func TestUserRepositoryDepartmentLinks(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	second := models.Department{Name: "Dialysis Technology", Code: "BSC-DT"}
	require.NoError(t, db.Create(&second).Error)

	repo := NewUserRepository(db)
	ctx := context.Background()
	linked := models.User{Email: "multi@example.com", FirstName: "Mia", Role: models.RoleFacilitator, DepartmentID: &f.department.ID, IsActive: true}
	require.NoError(t, repo.Create(ctx, &linked, []uint{f.department.ID, second.ID}))

	role := models.RoleFacilitator
	users, err := repo.List(ctx, UserFilter{Role: &role, DepartmentID: &second.ID})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Mia", users[0].FirstName)
	require.Len(t, users[0].Departments, 2)

	users, err = repo.List(ctx, UserFilter{DepartmentID: &f.department.ID})
	require.NoError(t, err)
	require.Len(t, users, 3)

	require.NoError(t, repo.UpdateRole(ctx, linked.ID, models.RoleAdmin))
	stored, err := repo.GetByID(ctx, linked.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, stored.Role)

	require.NoError(t, repo.Delete(ctx, linked.ID))
	var links int64
	require.NoError(t, db.Table("user_departments").Where("user_id = ?", linked.ID).Count(&links).Error)
	require.Zero(t, links)

	_, err = repo.GetByID(ctx, linked.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDepartmentRepositoryCountSubjectsAndDelete(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	repo := NewDepartmentRepository(db)
	counts, err := repo.CountSubjects(context.Background(), &f.year.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts[f.department.ID])

	require.NoError(t, repo.Delete(context.Background(), f.department.ID))
	require.ErrorIs(t, repo.Delete(context.Background(), f.department.ID), gorm.ErrRecordNotFound)

	var subjects int64
	require.NoError(t, db.Model(&models.Subject{}).Count(&subjects).Error)
	require.Equal(t, int64(1), subjects, "subjects are not cascaded")
}

func TestAnnouncementRepositoryListVisibleScopes(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db)

	other := models.Department{Name: "Radiology", Code: "BSC-RIT"}
	require.NoError(t, db.Create(&other).Error)

	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)
	items := []models.Announcement{
		{Title: "Everyone", Content: "all", CreatedBy: f.facilitator.ID, IsActive: true},
		{Title: "Mine", Content: "dept", DepartmentID: &f.department.ID, CreatedBy: f.facilitator.ID, IsActive: true},
		{Title: "Theirs", Content: "other", DepartmentID: &other.ID, CreatedBy: f.facilitator.ID, IsActive: true},
		{Title: "Expired", Content: "old", CreatedBy: f.facilitator.ID, IsActive: true, ExpiresAt: &expired},
	}
	for i := range items {
		require.NoError(t, db.Omit("Author").Create(&items[i]).Error)
	}

	repo := NewAnnouncementRepository(db)
	visible, total, err := repo.ListVisible(context.Background(), AnnouncementFilter{DepartmentID: &f.department.ID, VisibleAt: now})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	titles := []string{visible[0].Title, visible[1].Title}
	require.ElementsMatch(t, []string{"Everyone", "Mine"}, titles)
	require.Equal(t, "Fay", visible[0].Author.FirstName)
}

func TestActivityLogRepositoryTimelineAndCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()
	portionID := uint(11)
	otherID := uint(12)
	old := time.Now().AddDate(0, 0, -40)

	entries := []models.ActivityLog{
		{ActorID: 1, ActorRole: "facilitator", Action: "portion.completed", EntityType: "portion", EntityID: &portionID},
		{ActorID: 1, ActorRole: "facilitator", Action: "portion.reopened", EntityType: "portion", EntityID: &portionID},
		{ActorID: 2, ActorRole: "facilitator", Action: "portion.completed", EntityType: "portion", EntityID: &otherID},
		{ActorID: 2, ActorRole: "admin", Action: "department.created", EntityType: "department", CreatedAt: old},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	timeline, err := repo.Timeline(ctx, "portion", portionID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	require.Equal(t, "portion.completed", timeline[0].Action)
	require.Equal(t, "portion.reopened", timeline[1].Action)

	counts, err := repo.CountByAction(ctx, time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Equal(t, []ActionCount{
		{Action: "portion.completed", Total: 2},
		{Action: "portion.reopened", Total: 1},
	}, counts)

	since := time.Now().AddDate(0, 0, -7)
	actorID := uint(2)
	list, total, err := repo.List(ctx, ActivityLogFilter{Since: &since, ActorID: &actorID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "portion.completed", list[0].Action)
}
