package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/observability"
	"github.com/noah-isme/portion-tracker-api/internal/progress"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

// LeaderboardService ranks students by verified marks.
type LeaderboardService interface {
	Leaderboard(ctx context.Context, kind models.SubmissionKind) (dto.LeaderboardResponse, error)
}

type leaderboardService struct {
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
}

// NewLeaderboardService constructs the leaderboard service.
func NewLeaderboardService(submissions repository.SubmissionRepository, logger zerolog.Logger) LeaderboardService {
	return &leaderboardService{
		submissions: submissions,
		logger:      logger.With().Str("component", "leaderboard_service").Logger(),
	}
}

func (s *leaderboardService) Leaderboard(ctx context.Context, kind models.SubmissionKind) (dto.LeaderboardResponse, error) {
	defer func(started time.Time) {
		observability.DashboardBuild().WithLabelValues("leaderboard_" + string(kind)).Observe(time.Since(started).Seconds())
	}(time.Now())

	items, err := s.submissions.ListVerified(ctx, kind)
	submissions := degrade(s.logger, string(kind)+"_submissions", items, err)

	names := make(map[uint]string, len(submissions))
	for _, submission := range submissions {
		if _, seen := names[submission.StudentID]; !seen {
			names[submission.StudentID] = submission.Student.FullName()
		}
	}

	standings := progress.Rank(submissions)
	entries := make([]dto.LeaderboardEntry, 0, len(standings))
	for _, standing := range standings {
		entries = append(entries, dto.NewLeaderboardEntry(standing, names[standing.StudentID]))
	}

	return dto.LeaderboardResponse{Kind: string(kind), Entries: entries}, nil
}
