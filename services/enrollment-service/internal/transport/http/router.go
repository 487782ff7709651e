package handlers

import (
	"net/http"
	"time"

	"courseplatform/services/enrollment-service/internal/infrastructure/logger"
	"courseplatform/services/enrollment-service/internal/infrastructure/observability"
	"courseplatform/services/enrollment-service/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Handlers struct {
	Checkout   *CheckoutHandler
	Webhook    *WebhookHandler
	Course     *CourseHandler
	Enrollment *EnrollmentHandler
}

func NewRouter(h Handlers, auth *middleware.Auth, limiter *middleware.RateLimiter, allowedOrigins []string, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middleware.RequestLogger(log))

	if len(allowedOrigins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
		config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
		config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		r.Use(cors.New(config))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api/v1")
	{
		// подпись проверяется внутри, токена нет
		api.POST("/webhooks/payments", h.Webhook.Handle)

		checkout := api.Group("/checkout/sessions")
		checkout.Use(auth.Required())
		{
			checkout.POST("", limiter.Limit("checkout", 10, time.Minute), h.Checkout.Create)
			checkout.GET("/:id", h.Checkout.Get)
			checkout.POST("/:id/cancel", h.Checkout.Cancel)
			checkout.POST("/:id/verify", limiter.Limit("verify", 30, time.Minute), h.Checkout.Verify)
		}

		api.GET("/courses/:id/lessons/:lessonId", auth.Optional(), h.Course.Lesson)

		courses := api.Group("/courses/:id")
		courses.Use(auth.Required())
		{
			courses.POST("/enroll", h.Course.Enroll)
			courses.GET("/enrollment", h.Enrollment.Get)
			courses.POST("/lessons/:lessonId/complete", h.Enrollment.CompleteLesson)
		}

		api.GET("/enrollments", auth.Required(), h.Enrollment.List)
	}

	return r
}
