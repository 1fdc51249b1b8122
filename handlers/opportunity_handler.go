package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/jkamau717/farm_connect/cache"
	"github.com/jkamau717/farm_connect/chat"
	"github.com/jkamau717/farm_connect/database"
	"github.com/jkamau717/farm_connect/models"
)

// OpportunityHandler serves the roster read surface. Opportunity CRUD
// persistence itself lives outside the chat core; these are lookups only.
type OpportunityHandler struct {
	Cache *cache.Cache
}

func NewOpportunityHandler(c *cache.Cache) *OpportunityHandler {
	return &OpportunityHandler{Cache: c}
}

// ListOpportunitiesWithParticipants returns the farmer's opportunities with
// their applicant rosters, the projection the chat UI builds rosters from.
func (h *OpportunityHandler) ListOpportunitiesWithParticipants(c *fiber.Ctx) error {
	farmerID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	key := cache.Key(c.Path(), map[string]string{"farmer_id": farmerID.String()})
	if data, ok := h.Cache.Get(c.UserContext(), key); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}

	var opportunities []models.Opportunity
	err = database.DB.WithContext(c.UserContext()).
		Preload("Participants.Applicant").
		Preload("Managers").
		Where("farmer_id = ?", farmerID).
		Order("created_at desc").
		Find(&opportunities).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch opportunities"})
	}

	payload, err := json.Marshal(opportunities)
	if err != nil {
		return respondError(c, err)
	}
	h.Cache.Set(c.UserContext(), key, payload, chat.TagOpportunities(farmerID))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

// GetOpportunity returns one opportunity with its roster.
func (h *OpportunityHandler) GetOpportunity(c *fiber.Ctx) error {
	opportunityID := c.Params("opportunityId")

	var opportunity models.Opportunity
	err := database.DB.WithContext(c.UserContext()).
		Preload("Participants.Applicant").
		Preload("Managers").
		Where("id = ?", opportunityID).
		First(&opportunity).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Opportunity not found"})
	}

	return c.JSON(opportunity)
}
