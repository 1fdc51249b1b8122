package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jkamau717/farm_connect/handlers"
	"github.com/jkamau717/farm_connect/middleware"
)

func OpportunityRoutes(app *fiber.App, h *handlers.OpportunityHandler) {
	api := app.Group("/api/v1")

	opportunities := api.Group("/opportunities", middleware.Protected())
	opportunities.Get("", middleware.FarmerRequired(), h.ListOpportunitiesWithParticipants)
	opportunities.Get("/:opportunityId", h.GetOpportunity)
}
