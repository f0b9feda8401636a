package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/progress"
)

func newTestCourseworkService(c campus) *courseworkService {
	svc := NewCourseworkService(c.repos.coursework, c.repos.subjects, c.repos.users, c.repos.years, testValidator(), c.activity(), c.publisher, time.UTC, testLogger()).(*courseworkService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("projects")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionKindProject, kind)

	_, err = ParseKind("quizzes")
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestCourseworkCreateListComplete(t *testing.T) {
	db := setupServiceDB(t)
	c := seedCampus(t, db)
	svc := newTestCourseworkService(c)
	ctx := context.Background()

	assessment, err := svc.Create(ctx, c.actorFay, models.SubmissionKindAssessment, dto.CourseworkCreateRequest{
		SubjectID: c.anatomy.ID, Number: 2, ScheduledDate: "2024-02-01",
	})
	require.NoError(t, err)
	require.Equal(t, "IA 2", assessment.Title)
	require.InDelta(t, 20.0, assessment.MaxAmount, 1e-9)

	project, err := svc.Create(ctx, c.actorGus, models.SubmissionKindProject, dto.CourseworkCreateRequest{
		SubjectID: c.nephrology.ID, Title: "Dialysis <i>case</i> study", Type: "case_study", ScheduledDate: "2024-02-10", MaxAmount: ptrFloat(50),
	})
	require.NoError(t, err)
	require.Equal(t, "Dialysis case study", project.Title)
	require.InDelta(t, 50.0, project.MaxAmount, 1e-9)

	_, err = svc.Create(ctx, c.actorGus, models.SubmissionKindAssessment, dto.CourseworkCreateRequest{
		SubjectID: c.anatomy.ID, Number: 3, ScheduledDate: "2024-02-01",
	})
	require.ErrorIs(t, err, ErrCourseworkForbidden)

	_, err = svc.Create(ctx, c.actorFay, models.SubmissionKindAssessment, dto.CourseworkCreateRequest{
		SubjectID: c.anatomy.ID, ScheduledDate: "2024-02-01",
	})
	require.ErrorIs(t, err, ErrInvalidCoursework)

	_, err = svc.Create(ctx, c.actorGus, models.SubmissionKindProject, dto.CourseworkCreateRequest{
		SubjectID: c.nephrology.ID, Title: "Late", Type: "seminar", ScheduledDate: "2024-01-01",
	})
	require.ErrorIs(t, err, ErrInvalidDateRange)

	mine, err := svc.List(ctx, c.actorFay, models.SubmissionKindAssessment, dto.CourseworkListRequest{})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := svc.List(ctx, c.actorFay, models.SubmissionKindProject, dto.CourseworkListRequest{})
	require.NoError(t, err)
	require.Empty(t, theirs)

	visible, err := svc.List(ctx, c.actorSam, models.SubmissionKindAssessment, dto.CourseworkListRequest{})
	require.NoError(t, err)
	require.Len(t, visible, 1)

	_, err = svc.Complete(ctx, c.actorFay, models.SubmissionKindProject, project.ID)
	require.ErrorIs(t, err, ErrCourseworkForbidden)

	done, err := svc.Complete(ctx, c.actorGus, models.SubmissionKindProject, project.ID)
	require.NoError(t, err)
	require.True(t, done.IsCompleted)
	require.Equal(t, progress.Midnight(fixedNow, time.UTC), *done.CompletedOn)

	_, err = svc.Complete(ctx, c.actorAdmin, models.SubmissionKindAssessment, 999)
	require.ErrorIs(t, err, ErrCourseworkNotFound)

	require.Equal(t, []string{EventCourseworkCompleted}, c.publisher.types())
}
