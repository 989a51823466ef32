package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/addislearn/learning-platform/internal/config"
	"github.com/addislearn/learning-platform/internal/database"
	"github.com/addislearn/learning-platform/internal/handler"
	"github.com/addislearn/learning-platform/internal/otp"
	"github.com/addislearn/learning-platform/internal/payment"
	"github.com/addislearn/learning-platform/internal/queue"
	"github.com/addislearn/learning-platform/internal/repository"
	"github.com/addislearn/learning-platform/internal/router"
	"github.com/addislearn/learning-platform/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is absent; limiter and cache degrade to no-ops

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	courses := repository.NewCourseRepo(db)
	lessons := repository.NewLessonRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	payments := repository.NewPaymentRepo(db)
	engagement := repository.NewEngagementRepo(db)

	otpClient := otp.NewClient(cfg.SMSToken, cfg.SMSSenderID, cfg.SMSSender)
	gateway := payment.NewClient(cfg.ChapaSecret)

	authSvc := service.NewAuthService(cfg, users, tokens, otpClient)
	paySvc := service.NewPaymentService(db, payments, enrollments, courses, users, gateway, cfg.CallbackURL)
	paySvc.Notify = func(ctx context.Context, ev queue.EnrollmentConfirmedEvent) {
		if err := queue.PublishEnrollmentConfirmed(ctx, ev); err != nil {
			log.Printf("publish enrollment event: %v", err)
		}
	}

	go func() {
		if err := queue.StartEnrollmentConsumer(); err != nil {
			log.Printf("enrollment consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(users),
		Courses:    handler.NewCourseHandler(courses, enrollments, engagement),
		Lessons:    handler.NewLessonHandler(lessons, courses, enrollments),
		Payments:   handler.NewPaymentHandler(paySvc, enrollments),
		Engagement: handler.NewEngagementHandler(engagement, courses, enrollments),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
