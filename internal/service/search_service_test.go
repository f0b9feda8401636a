package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

func newTestSearchService(c campus, repo repository.SearchRepository) SearchService {
	return NewSearchService(repo, c.repos.users, testValidator(), testLogger())
}

func resultTitles(response dto.SearchResponse) []string {
	out := make([]string, 0, len(response.Results))
	for _, result := range response.Results {
		out = append(out, result.Type+":"+result.Title)
	}
	return out
}

func TestSearchMatchesEveryTypeCaseInsensitively(t *testing.T) {
	db := setupServiceDB(t)
	c := seedCampus(t, db)
	svc := newTestSearchService(c, repository.NewSearchRepository(db))
	ctx := context.Background()

	users, err := svc.Search(ctx, c.actorAdmin, dto.SearchRequest{Query: "  COLE "})
	require.NoError(t, err)
	require.Equal(t, "COLE", users.Query)
	require.Equal(t, []string{"user:Fay Cole"}, resultTitles(users))
	require.Equal(t, "facilitator • fay@example.com", users.Results[0].Subtitle)

	departments, err := svc.Search(ctx, c.actorAdmin, dto.SearchRequest{Query: "tech"})
	require.NoError(t, err)
	require.Equal(t, []string{"department:Cardiac Technology", "department:Dialysis Technology"}, resultTitles(departments))

	nephro, err := svc.Search(ctx, c.actorAdmin, dto.SearchRequest{Query: "NE"})
	require.NoError(t, err)
	require.Equal(t, []string{"subject:Nephrology", "portion:Nephron"}, resultTitles(nephro))
	require.Equal(t, "NE • Dialysis Technology", nephro.Results[0].Subtitle)
	require.Equal(t, "Nephrology", nephro.Results[1].Subtitle)
}

func TestSearchScopesByRole(t *testing.T) {
	db := setupServiceDB(t)
	c := seedCampus(t, db)
	svc := newTestSearchService(c, repository.NewSearchRepository(db))
	ctx := context.Background()

	gus, err := svc.Search(ctx, c.actorGus, dto.SearchRequest{Query: "ne"})
	require.NoError(t, err)
	require.Equal(t, []string{"subject:Nephrology", "portion:Nephron"}, resultTitles(gus))

	fay, err := svc.Search(ctx, c.actorFay, dto.SearchRequest{Query: "ne"})
	require.NoError(t, err)
	require.Empty(t, fay.Results, "facilitators only find their own subjects")

	sam, err := svc.Search(ctx, c.actorSam, dto.SearchRequest{Query: "ne"})
	require.NoError(t, err)
	require.Empty(t, sam.Results, "students only find their department's subjects")

	sam, err = svc.Search(ctx, c.actorSam, dto.SearchRequest{Query: "valves"})
	require.NoError(t, err)
	require.Equal(t, []string{"portion:Valves"}, resultTitles(sam))

	sam, err = svc.Search(ctx, c.actorSam, dto.SearchRequest{Query: "cole"})
	require.NoError(t, err)
	require.Empty(t, sam.Results, "users are only searched by user managers")
}

func TestSearchEdgeCases(t *testing.T) {
	db := setupServiceDB(t)
	c := seedCampus(t, db)
	svc := newTestSearchService(c, repository.NewSearchRepository(db))
	ctx := context.Background()

	blank, err := svc.Search(ctx, c.actorAdmin, dto.SearchRequest{Query: "   "})
	require.NoError(t, err)
	require.NotNil(t, blank.Results)
	require.Empty(t, blank.Results)

	wildcard, err := svc.Search(ctx, c.actorAdmin, dto.SearchRequest{Query: "%"})
	require.NoError(t, err)
	require.Empty(t, wildcard.Results, "LIKE wildcards are matched literally")

	_, err = svc.Search(ctx, c.actorAdmin, dto.SearchRequest{Query: strings.Repeat("x", 101)})
	require.Error(t, err)

	_, err = svc.Search(ctx, Actor{ID: 999, Role: c.actorSam.Role}, dto.SearchRequest{Query: "ne"})
	require.ErrorIs(t, err, ErrUserNotFound)
}
