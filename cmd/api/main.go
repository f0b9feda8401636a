package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portion-tracker-api/internal/config"
	"github.com/noah-isme/portion-tracker-api/internal/database"
	"github.com/noah-isme/portion-tracker-api/internal/handler"
	"github.com/noah-isme/portion-tracker-api/internal/middleware"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
	"github.com/noah-isme/portion-tracker-api/internal/router"
	"github.com/noah-isme/portion-tracker-api/internal/service"
	cloud "github.com/noah-isme/portion-tracker-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	var uploader service.FileUploader
	if cfg.UploadsEnabled() {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		uploader = store
	} else {
		logger.Warn().Msg("cloudinary credentials missing; submissions will be rejected")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	yearRepo := repository.NewAcademicYearRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	portionRepo := repository.NewPortionRepository(db)
	courseworkRepo := repository.NewCourseworkRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	searchRepo := repository.NewSearchRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	events := service.NewEventPublisher(redisClient, natsConn, cfg.EventsChannel, logger)

	progressService := service.NewProgressService(yearRepo, subjectRepo, departmentRepo, userRepo, service.ProgressOptions{
		Location:           cfg.Location,
		UpcomingWindowDays: cfg.UpcomingWindowDays,
		UpcomingLimit:      cfg.UpcomingLimit,
	}, logger)
	curriculumService := service.NewCurriculumService(service.CurriculumRepositories{
		Subjects:      subjectRepo,
		Portions:      portionRepo,
		Departments:   departmentRepo,
		Users:         userRepo,
		AcademicYears: yearRepo,
	}, validate, activityService, events, cfg.Location, logger)
	courseworkService := service.NewCourseworkService(courseworkRepo, subjectRepo, userRepo, yearRepo, validate, activityService, events, cfg.Location, logger)
	submissionService := service.NewSubmissionService(submissionRepo, courseworkRepo, validate, uploader, activityService, events, logger)
	leaderboardService := service.NewLeaderboardService(submissionRepo, logger)
	departmentService := service.NewDepartmentService(departmentRepo, yearRepo, validate, activityService, logger)
	academicYearService := service.NewAcademicYearService(yearRepo, validate, activityService, logger)
	userService := service.NewUserService(userRepo, validate, activityService, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, validate, activityService, logger)
	searchService := service.NewSearchService(searchRepo, userRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    20 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, router.Info{Name: cfg.AppName, Env: cfg.AppEnv, Location: cfg.Location}, router.Dependencies{
		Dashboard:     handler.NewDashboardHandler(progressService, logger),
		Curriculum:    handler.NewCurriculumHandler(progressService, curriculumService, validate, logger),
		Coursework:    handler.NewCourseworkHandler(courseworkService, logger),
		Submissions:   handler.NewSubmissionHandler(submissionService, middleware.RateLimit("submissions", cfg.SubmissionRateLimit, time.Minute), logger),
		Leaderboards:  handler.NewLeaderboardHandler(leaderboardService, logger),
		Departments:   handler.NewDepartmentHandler(departmentService, logger),
		AcademicYears: handler.NewAcademicYearHandler(academicYearService, logger),
		Users:         handler.NewUserHandler(userService, logger),
		Announcements: handler.NewAnnouncementHandler(announcementService, logger),
		Activity:      handler.NewActivityHandler(activityService, logger),
		Search:        handler.NewSearchHandler(searchService, logger),
		Profile:       handler.NewProfileHandler(userService, logger),
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("timezone", cfg.Location.String()).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
