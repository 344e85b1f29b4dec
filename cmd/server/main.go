package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"interviewdesk/config"
	_ "interviewdesk/docs"
	"interviewdesk/internal/adapters/auth"
	"interviewdesk/internal/adapters/email"
	httpdelivery "interviewdesk/internal/delivery/http"
	"interviewdesk/internal/delivery/http/controllers"
	"interviewdesk/internal/delivery/http/middleware"
	"interviewdesk/internal/domain"
	"interviewdesk/internal/repository/postgres"
	"interviewdesk/internal/services"
	"interviewdesk/migrations"
)

// @title Interview Desk API
// @version 1.0
// @description Meeting scheduling and slot booking for HR teams.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)
	if err := run(logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	policy, err := config.LoadSlotPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return err
	}
	if _, err := migrations.Apply(ctx, db, logger); err != nil {
		return err
	}

	meetingRepo := postgres.NewMeetingRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	invitationRepo := postgres.NewMeetingInvitationRepository(db)
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	jwt := auth.NewJWT(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, roleRepo, auth.NewBcryptHasher(0), jwt, cfg.JWTExpiry, logger)
	scheduling := services.NewSchedulingService(meetingRepo, slotRepo, bookingRepo, emailService, logger, services.SchedulingOptions{
		SlotPolicy:     policy,
		EditPolicy:     domain.EditPolicy{AllowEditAfterOpen: cfg.AllowEditAfterOpen},
		PublicBaseURL:  cfg.PublicBaseURL,
		ContextTimeout: cfg.ContextTimeout,
	})
	invitations := services.NewInvitationService(meetingRepo, invitationRepo, userRepo, emailService, logger, cfg.PublicBaseURL)

	router := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:     controllers.NewAuthController(logger, authService),
		Meetings: controllers.NewMeetingController(logger, scheduling, invitations, policy),
		Bookings: controllers.NewBookingController(logger, scheduling),
		Public:   controllers.NewPublicController(logger, scheduling),
	}, jwt, logger)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, router))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "err", err)
		}
	}()

	logger.Info("interview desk API listening", "addr", server.Addr, "env", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
