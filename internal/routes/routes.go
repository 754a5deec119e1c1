package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/tinytitans-bjj/community-backend/internal/config"
	"github.com/tinytitans-bjj/community-backend/internal/dto"
	"github.com/tinytitans-bjj/community-backend/internal/handlers"
	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/middleware"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Access     *handlers.AccessHandler
	Discussion *handlers.DiscussionHandler
	Media      *handlers.MediaHandler
	Moderation *handlers.ModerationHandler
	Location   *handlers.LocationHandler
}

func tooManyRequests(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
		Error: true, Code: "rate_limited", Message: "Too many requests, slow down",
	})
}

func Setup(app *fiber.App, cfg *config.Config, policy *identity.AdministratorPolicy, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached:      tooManyRequests,
	}))

	// Health (no auth)
	api.Get("/health", h.Health.Check)

	protected := api.Group("", middleware.JWTProtected(cfg))

	// PIN verification: 10 req/min per principal and location, on top of the
	// exponential lockout in the access gate.
	verifyLimiter := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return middleware.Principal(c).ID + "|" + c.Params("slug")
		},
		LimitReached: tooManyRequests,
	})
	protected.Get("/locations/:slug/verify-pin", h.Access.Check)
	protected.Post("/locations/:slug/verify-pin", verifyLimiter, h.Access.Verify)
	protected.Get("/locations/:slug/discussions", h.Discussion.ListThreads)

	// Discussions
	community := protected.Group("/community/discussions")
	community.Post("/", h.Discussion.CreateThread)
	community.Get("/:id", h.Discussion.GetThread)
	community.Patch("/:id", h.Discussion.UpdateThread)
	community.Delete("/:id", h.Discussion.DeleteThread)
	community.Post("/:id/replies", h.Discussion.CreateReply)
	community.Patch("/:id/replies/:replyId", h.Discussion.UpdateReply)
	community.Delete("/:id/replies/:replyId", h.Discussion.DeleteReply)

	// Media and reports
	protected.Post("/upload", h.Media.Upload)
	protected.Delete("/media/:id", h.Media.Delete)
	protected.Post("/reports", h.Discussion.CreateReport)

	// Moderation console (protected + admin required)
	admin := protected.Group("/admin", middleware.AdminRequired(policy))
	admin.Get("/community/threads", h.Moderation.ListThreads)
	admin.Patch("/community/threads/:id", h.Moderation.ModerateThread)
	admin.Delete("/community/threads/:id", h.Moderation.DeleteThread)
	admin.Get("/community/reports", h.Moderation.ListReports)
	admin.Put("/community/reports/:id", h.Moderation.ResolveReport)

	// Location administration
	admin.Get("/locations", h.Location.List)
	admin.Post("/locations", h.Location.Create)
	admin.Patch("/locations/:slug", h.Location.Update)
}
