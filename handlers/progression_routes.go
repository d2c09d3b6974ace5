// handlers/progression_routes.go
package handlers

import (
	"strconv"

	"leadership-progression-system/middleware"
	"leadership-progression-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(
	app *fiber.App,
	rewardService *services.RewardService,
	renameService *services.RenameService,
	leaderboardService *services.LeaderboardService,
	seasonService *services.SeasonService,
) {
	// 🔓 Public routes — *no user context*, but **still require Gateway auth**
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "25"))

		rows, err := leaderboardService.GetLeaderboardPage(services.LeaderboardOptions{
			GroupID: c.Query("group", ""),
			Page:    page,
			Size:    size,
		})
		if err != nil {
			return progressionError(c, err, "failed to load leaderboard")
		}
		return c.JSON(fiber.Map{
			"page":    page,
			"entries": rows,
		})
	})

	// 🔐 Secured routes — require user context (userID, roles), enforced via middleware
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/progression", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		summary, err := rewardService.GetProgressionSummary(userID)
		if err != nil {
			return progressionError(c, err, "failed to load progression")
		}
		return c.JSON(summary)
	})

	securedGroup.Get("/user/elite", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		elite, err := leaderboardService.IsElite(userID)
		if err != nil {
			return progressionError(c, err, "failed to evaluate elite status")
		}
		return c.JSON(fiber.Map{"elite": elite})
	})

	securedGroup.Post("/user/rename", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			SubName string `json:"sub_name"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		profile, err := renameService.RequestRename(userID, req.SubName)
		if err != nil {
			return progressionError(c, err, "rename failed")
		}
		return c.JSON(fiber.Map{
			"message":  "sub-name updated",
			"sub_name": profile.SubName,
		})
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Post("/earn/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID     string `json:"user_id"`
			ActivityID string `json:"activity_id"`
			Amount     int64  `json:"amount"`
			Source     string `json:"source"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := rewardService.ApplySeasonalEarn(req.UserID, req.ActivityID, req.Amount, req.Source)
		if err != nil {
			return progressionError(c, err, "reward application failed")
		}

		// A duplicate activity is a success: the reward already landed.
		return c.JSON(result)
	})

	adminGroup.Post("/season/windows", func(c *fiber.Ctx) error {
		type Req struct {
			Name      string `json:"name"`
			StartDate string `json:"start_date"`
			EndDate   string `json:"end_date"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		window, err := seasonService.CreateWindow(req.Name, req.StartDate, req.EndDate)
		if err != nil {
			return progressionError(c, err, "season window creation failed")
		}
		return c.Status(fiber.StatusCreated).JSON(window)
	})

	adminGroup.Get("/season/current", func(c *fiber.Ctx) error {
		window, err := seasonService.CurrentWindow()
		if err != nil {
			return progressionError(c, err, "failed to load current season")
		}
		if window == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no active season window",
			})
		}
		return c.JSON(window)
	})

	adminGroup.Post("/season/:id/reset", func(c *fiber.Ctx) error {
		windowID := c.Params("id")

		if err := seasonService.ResetSeason(windowID); err != nil {
			return progressionError(c, err, "season reset failed")
		}
		return c.JSON(fiber.Map{
			"message":   "season boundary applied",
			"window_id": windowID,
		})
	})

	adminGroup.Get("/analytics/recent", func(c *fiber.Ctx) error {
		n, _ := strconv.Atoi(c.Query("limit", "50"))

		if rewardService.Analytics == nil {
			return c.JSON(fiber.Map{"samples": []any{}})
		}
		return c.JSON(fiber.Map{
			"samples": rewardService.Analytics.Recent(n),
		})
	})
}

// progressionError maps the service error taxonomy onto HTTP statuses:
// validation → 400, conflict → 409, everything else → 500.
func progressionError(c *fiber.Ctx, err error, fallback string) error {
	if ve, ok := services.AsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  ve.Message,
			"reason": ve.Reason,
		})
	}
	if ce, ok := services.AsConflictError(err); ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  ce.Message,
			"reason": ce.Reason,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fallback,
		"cause": err.Error(),
	})
}
