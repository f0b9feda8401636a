package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/portion-tracker-api/internal/handler"
	"github.com/noah-isme/portion-tracker-api/internal/observability"
)

// Info describes the running service for the health endpoint.
type Info struct {
	Name     string
	Env      string
	Location *time.Location
}

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Dashboard     *handler.DashboardHandler
	Curriculum    *handler.CurriculumHandler
	Coursework    *handler.CourseworkHandler
	Submissions   *handler.SubmissionHandler
	Leaderboards  *handler.LeaderboardHandler
	Departments   *handler.DepartmentHandler
	AcademicYears *handler.AcademicYearHandler
	Users         *handler.UserHandler
	Announcements *handler.AnnouncementHandler
	Activity      *handler.ActivityHandler
	Search        *handler.SearchHandler
	Profile       *handler.ProfileHandler
	JWTMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application. Health and
// metrics stay public; everything else under /api/v1 needs a bearer token.
func Register(app *fiber.App, info Info, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	public := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", info.Name)
		return c.Next()
	})
	public.Get("/health", handler.HealthCheck(info.Name, info.Env, info.Location))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	api := public.Group("", jwtMiddleware)

	if deps.Dashboard != nil {
		deps.Dashboard.Register(api)
	}
	if deps.Curriculum != nil {
		deps.Curriculum.Register(api)
	}
	if deps.Coursework != nil {
		deps.Coursework.Register(api.Group("/coursework"))
	}
	if deps.Submissions != nil {
		deps.Submissions.Register(api.Group("/submissions"))
	}
	if deps.Leaderboards != nil {
		deps.Leaderboards.Register(api.Group("/leaderboards"))
	}
	if deps.Departments != nil {
		deps.Departments.Register(api.Group("/departments"))
	}
	if deps.AcademicYears != nil {
		deps.AcademicYears.Register(api.Group("/academic-years"))
	}
	if deps.Users != nil {
		deps.Users.Register(api.Group("/users"))
	}
	if deps.Announcements != nil {
		deps.Announcements.Register(api.Group("/announcements"))
	}
	if deps.Activity != nil {
		deps.Activity.Register(api.Group("/activity"))
	}
	if deps.Search != nil {
		deps.Search.Register(api.Group("/search"))
	}
	if deps.Profile != nil {
		deps.Profile.Register(api.Group("/me"))
	}
}
