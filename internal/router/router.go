package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/addislearn/learning-platform/internal/config"
	"github.com/addislearn/learning-platform/internal/handler"
	"github.com/addislearn/learning-platform/internal/middleware"
	"github.com/addislearn/learning-platform/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Courses    *handler.CourseHandler
	Lessons    *handler.LessonHandler
	Payments   *handler.PaymentHandler
	Engagement *handler.EngagementHandler
}

// Register mounts all routes. Unauthenticated operations live under
// /v1/auth and the public catalogue; everything else requires a valid
// access token, with role checks layered per group.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	// ----- unauthenticated -----

	auth := e.Group("/v1/auth")
	auth.POST("/signup", h.Auth.SignUp)
	auth.POST("/otp/send", h.Auth.SendOTP, limiter)
	auth.POST("/otp/verify", h.Auth.VerifyOTP, limiter)
	auth.POST("/login", h.Auth.Login, limiter)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/forget-password", h.Auth.ForgetPassword, limiter)
	auth.POST("/verify-reset-otp", h.Auth.VerifyResetOTP, limiter)
	auth.POST("/reset-password", h.Auth.ResetPassword)

	// Gateway redirect/webhook. Both verbs because the gateway redirects
	// the browser with GET and delivers webhooks with POST.
	e.GET("/v1/payments/callback", h.Payments.Callback)
	e.POST("/v1/payments/callback", h.Payments.Callback)

	// Public catalogue.
	e.GET("/v1/courses", h.Courses.List, cache)
	e.GET("/v1/courses/:id", h.Courses.Get)
	e.GET("/v1/courses/:id/lessons", h.Lessons.ListByCourse, cache)
	e.GET("/v1/courses/:id/comments", h.Engagement.ListComments)
	e.GET("/v1/courses/:id/rating", h.Engagement.CourseRating)
	e.GET("/v1/instructors", h.Users.ListInstructors, cache)

	// ----- authenticated -----

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(cfg.AccessSecret))

	v1.GET("/me", h.Auth.Me)
	v1.PUT("/me", h.Users.UpdateProfile)
	v1.GET("/me/enrollments", h.Payments.MyEnrollments)

	v1.POST("/courses/:id/enroll", h.Payments.Initiate)
	v1.GET("/lessons/:id/video", h.Lessons.GetVideo)

	v1.POST("/courses/:id/comments", h.Engagement.CreateComment)
	v1.PUT("/comments/:id", h.Engagement.UpdateComment)
	v1.DELETE("/comments/:id", h.Engagement.DeleteComment)
	v1.POST("/courses/:id/reviews", h.Engagement.SubmitReview)

	// ----- instructor and admin -----

	teach := v1.Group("", middleware.RequireRole(model.RoleInstructor, model.RoleAdmin))
	teach.POST("/courses", h.Courses.Create)
	teach.GET("/courses/mine", h.Courses.ListMine)
	teach.PUT("/courses/:id", h.Courses.Update)
	teach.DELETE("/courses/:id", h.Courses.Delete)
	teach.GET("/courses/:id/stats", h.Courses.Stats)
	teach.POST("/courses/:id/lessons", h.Lessons.Create)
	teach.DELETE("/lessons/:id", h.Lessons.Delete)
	teach.PUT("/lessons/:id/video", h.Lessons.AttachVideo)

	// ----- admin only -----

	admin := v1.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", h.Users.List)
	admin.GET("/users/:id", h.Users.Get)
	admin.PUT("/users/:id/role", h.Users.UpdateRole)
	admin.PUT("/users/:id/deactivate", h.Users.Deactivate)
	admin.DELETE("/users/:id", h.Users.Delete)
	admin.GET("/users/:id/payments", h.Payments.ListByUser)
	admin.GET("/courses/:id/payments", h.Payments.ListByCourse)
}
