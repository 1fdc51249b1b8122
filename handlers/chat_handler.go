package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/cache"
	"github.com/jkamau717/farm_connect/chat"
	"github.com/jkamau717/farm_connect/models"
	"github.com/jkamau717/farm_connect/websocket"
)

// ChatHandler is the HTTP surface over the thread store. Handlers publish the
// store-returned events to the hub and funnel the returned tags through one
// cache invalidation step.
type ChatHandler struct {
	Store *chat.Store
	Cache *cache.Cache
	Hub   *websocket.Hub
}

func NewChatHandler(store *chat.Store, c *cache.Cache, hub *websocket.Hub) *ChatHandler {
	return &ChatHandler{Store: store, Cache: c, Hub: hub}
}

func currentUser(c *fiber.Ctx) (uuid.UUID, string, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, "", fiber.ErrUnauthorized
	}
	claims := token.Claims.(jwt.MapClaims)
	id, err := uuid.Parse(claims["user_id"].(string))
	if err != nil {
		return uuid.Nil, "", fiber.ErrUnauthorized
	}
	role, _ := claims["role"].(string)
	return id, role, nil
}

func respondError(c *fiber.Ctx, err error) error {
	var derr *chat.Error
	if errors.As(err, &derr) {
		return c.Status(derr.Status).JSON(fiber.Map{
			"error":   derr.Message,
			"code":    derr.Code,
			"details": derr.Details,
		})
	}
	log.Printf("[ERROR] %v | Path: %s", err, c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// dispatch is the single post-mutation step: real-time fan-out, then cache
// invalidation for every tag the mutation reported.
func (h *ChatHandler) dispatch(events []chat.Event, tags []string) {
	for _, event := range events {
		h.Hub.Publish(event)
	}
	h.Cache.Invalidate(context.Background(), tags...)
}

func (h *ChatHandler) ListThreads(c *fiber.Ctx) error {
	farmerID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	includeClosed := c.Query("include_closed") == "true"

	key := cache.Key(c.Path(), map[string]string{
		"farmer_id":      farmerID.String(),
		"include_closed": c.Query("include_closed", "false"),
	})
	if data, ok := h.Cache.Get(c.UserContext(), key); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}

	summaries, err := h.Store.ListThreads(c.UserContext(), farmerID, includeClosed)
	if err != nil {
		return respondError(c, err)
	}

	payload, err := json.Marshal(summaries)
	if err != nil {
		return respondError(c, err)
	}
	h.Cache.Set(c.UserContext(), key, payload, chat.TagThreads(farmerID))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

func (h *ChatHandler) GetThreadDetail(c *fiber.Ctx) error {
	farmerID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	threadID, err := uuid.Parse(c.Params("threadId"))
	if err != nil {
		return respondError(c, chat.Validation("invalid thread id"))
	}

	key := cache.Key(c.Path(), map[string]string{"farmer_id": farmerID.String()})
	if data, ok := h.Cache.Get(c.UserContext(), key); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}

	detail, err := h.Store.GetThreadDetail(c.UserContext(), threadID, farmerID)
	if err != nil {
		return respondError(c, err)
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		return respondError(c, err)
	}
	h.Cache.Set(c.UserContext(), key, payload, chat.TagThreadDetail(threadID, farmerID))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

type CreateDMRequest struct {
	ApplicantID    string  `json:"applicant_id" validate:"required,uuid"`
	OpportunityID  string  `json:"opportunity_id" validate:"required,uuid"`
	InitialMessage *string `json:"initial_message,omitempty"`
}

func (h *ChatHandler) CreateDMThread(c *fiber.Ctx) error {
	farmerID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateDMRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, chat.Validation("cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return respondError(c, chat.Validation(err.Error()))
	}
	applicantID, _ := uuid.Parse(req.ApplicantID)
	opportunityID, _ := uuid.Parse(req.OpportunityID)

	result, err := h.Store.CreateDMThread(c.UserContext(), chat.CreateDMInput{
		FarmerID:       farmerID,
		ApplicantID:    applicantID,
		OpportunityID:  opportunityID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return respondError(c, err)
	}

	h.dispatch(result.Events, result.Tags)
	return c.Status(fiber.StatusCreated).JSON(result.Summary)
}

type CreateGroupRequest struct {
	OpportunityID  string   `json:"opportunity_id" validate:"required,uuid"`
	Name           string   `json:"name" validate:"required,min=1,max=255"`
	ParticipantIDs []string `json:"participant_ids" validate:"dive,uuid"`
}

func (h *ChatHandler) CreateGroupThread(c *fiber.Ctx) error {
	farmerID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, chat.Validation("cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return respondError(c, chat.Validation(err.Error()))
	}

	opportunityID, _ := uuid.Parse(req.OpportunityID)
	participantIDs := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	for _, raw := range req.ParticipantIDs {
		id, _ := uuid.Parse(raw)
		participantIDs = append(participantIDs, id)
	}

	result, err := h.Store.CreateGroupThread(c.UserContext(), chat.CreateGroupInput{
		FarmerID:       farmerID,
		OpportunityID:  opportunityID,
		Name:           req.Name,
		ParticipantIDs: participantIDs,
	})
	if err != nil {
		return respondError(c, err)
	}

	h.dispatch(result.Events, result.Tags)
	return c.Status(fiber.StatusCreated).JSON(result.Summary)
}

type PostMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	userID, role, err := currentUser(c)
	if err != nil {
		return err
	}
	threadID, err := uuid.Parse(c.Params("threadId"))
	if err != nil {
		return respondError(c, chat.Validation("invalid thread id"))
	}

	var req PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, chat.Validation("cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return respondError(c, chat.Validation(err.Error()))
	}

	authorRole := models.RoleApplicant
	if role == "farmer" {
		authorRole = models.RoleFarmer
	}

	result, err := h.Store.PostMessage(c.UserContext(), threadID, chat.PostMessageInput{
		AuthorID:   userID,
		AuthorRole: authorRole,
		Body:       req.Body,
	}, userID)
	if err != nil {
		return respondError(c, err)
	}

	h.dispatch(result.Events, result.Tags)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": result.Message,
		"thread":  result.Summary,
	})
}

type MarkReadRequest struct {
	ReadAt *time.Time `json:"read_at,omitempty"`
}

func (h *ChatHandler) MarkThreadRead(c *fiber.Ctx) error {
	farmerID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	threadID, err := uuid.Parse(c.Params("threadId"))
	if err != nil {
		return respondError(c, chat.Validation("invalid thread id"))
	}

	var req MarkReadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, chat.Validation("cannot parse JSON"))
		}
	}

	result, err := h.Store.MarkThreadRead(c.UserContext(), threadID, chat.MarkReadInput{
		FarmerID: farmerID,
		ReadAt:   req.ReadAt,
	})
	if err != nil {
		return respondError(c, err)
	}

	h.dispatch(result.Events, result.Tags)
	return c.JSON(result.Summary)
}

type BroadcastRequest struct {
	Body            string `json:"body" validate:"required,min=1,max=2000"`
	IncludeManagers bool   `json:"include_managers"`
}

func (h *ChatHandler) BroadcastToOpportunity(c *fiber.Ctx) error {
	farmerID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	opportunityID, err := uuid.Parse(c.Params("opportunityId"))
	if err != nil {
		return respondError(c, chat.Validation("invalid opportunity id"))
	}

	var req BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, chat.Validation("cannot parse JSON"))
	}
	if err := validate.Struct(req); err != nil {
		return respondError(c, chat.Validation(err.Error()))
	}

	result, err := h.Store.BroadcastToOpportunity(c.UserContext(), opportunityID, chat.BroadcastInput{
		FarmerID:        farmerID,
		Body:            req.Body,
		IncludeManagers: req.IncludeManagers,
	})
	if err != nil {
		return respondError(c, err)
	}

	h.dispatch(result.Events, result.Tags)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": result.Message,
		"thread":  result.Summary,
	})
}
