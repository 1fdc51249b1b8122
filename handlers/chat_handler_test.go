package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jkamau717/farm_connect/chat"
	"github.com/jkamau717/farm_connect/handlers"
	"github.com/jkamau717/farm_connect/models"
	"github.com/jkamau717/farm_connect/routes"
	"github.com/jkamau717/farm_connect/storage"
	"github.com/jkamau717/farm_connect/websocket"
)

const testSecret = "test-secret"

type stubRoster struct {
	opportunities map[uuid.UUID]*chat.OpportunityInfo
}

func (r *stubRoster) Opportunity(ctx context.Context, id uuid.UUID) (*chat.OpportunityInfo, error) {
	return r.opportunities[id], nil
}

type stubDirectory struct {
	participants map[uuid.UUID]*chat.Participant
}

func (d *stubDirectory) ResolveParticipant(ctx context.Context, id uuid.UUID) (*chat.Participant, error) {
	return d.participants[id], nil
}

type testEnv struct {
	app       *fiber.App
	farmer    uuid.UUID
	applicant uuid.UUID
	opp       uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	env := &testEnv{
		farmer:    uuid.New(),
		applicant: uuid.New(),
		opp:       uuid.New(),
	}

	roster := &stubRoster{opportunities: map[uuid.UUID]*chat.OpportunityInfo{
		env.opp: {
			ID:             env.opp,
			Title:          "Coffee picking",
			Status:         models.OpportunityStatusOpen,
			FarmerID:       env.farmer,
			ParticipantIDs: []uuid.UUID{env.applicant},
		},
	}}
	directory := &stubDirectory{participants: map[uuid.UUID]*chat.Participant{
		env.farmer:    {ID: env.farmer, Role: models.RoleFarmer, Name: "Wanjiru"},
		env.applicant: {ID: env.applicant, Role: models.RoleApplicant, Name: "Kiprop"},
	}}

	hub := websocket.NewHub()
	go hub.Run()

	store := chat.NewStore(storage.NewMemoryStore(), roster, directory)
	h := handlers.NewChatHandler(store, nil, hub)

	app := fiber.New()
	routes.ChatRoutes(app, h)
	env.app = app
	return env
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestCreateDMThreadEndpoint(t *testing.T) {
	env := newTestEnv(t)
	farmerToken := token(t, env.farmer, "farmer")

	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/threads/dm", farmerToken, fiber.Map{
		"applicant_id":    env.applicant.String(),
		"opportunity_id":  env.opp.String(),
		"initial_message": "habari, can you start Monday?",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var summary chat.ThreadSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Type != models.ThreadTypeDM {
		t.Errorf("expected dm thread, got %s", summary.Type)
	}
	if summary.LastMessage == nil {
		t.Error("summary should reflect the initial message")
	}
}

func TestCreateDMThreadRequiresFarmerRole(t *testing.T) {
	env := newTestEnv(t)
	applicantToken := token(t, env.applicant, "applicant")

	resp := doJSON(t, env.app, http.MethodPost, "/api/v1/threads/dm", applicantToken, fiber.Map{
		"applicant_id":   env.applicant.String(),
		"opportunity_id": env.opp.String(),
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for applicant caller, got %d", resp.StatusCode)
	}
}

func TestListThreadsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	farmerToken := token(t, env.farmer, "farmer")

	doJSON(t, env.app, http.MethodPost, "/api/v1/threads/dm", farmerToken, fiber.Map{
		"applicant_id":   env.applicant.String(),
		"opportunity_id": env.opp.String(),
	})

	resp := doJSON(t, env.app, http.MethodGet, "/api/v1/threads", farmerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var summaries []chat.ThreadSummary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(summaries))
	}
}

func TestPostMessageMapsTaxonomyToStatusCodes(t *testing.T) {
	env := newTestEnv(t)
	farmerToken := token(t, env.farmer, "farmer")

	resp := doJSON(t, env.app, http.MethodPost,
		fmt.Sprintf("/api/v1/threads/%s/messages", uuid.New()), farmerToken,
		fiber.Map{"body": "anyone there?"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing thread, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload["code"] != string(chat.CodeNotFound) {
		t.Errorf("expected code %s in error payload, got %v", chat.CodeNotFound, payload["code"])
	}
}

func TestBroadcastEndpoint(t *testing.T) {
	env := newTestEnv(t)
	farmerToken := token(t, env.farmer, "farmer")

	path := fmt.Sprintf("/api/v1/opportunities/%s/broadcast", env.opp)
	resp := doJSON(t, env.app, http.MethodPost, path, farmerToken, fiber.Map{"body": "Meet at 6am"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp = doJSON(t, env.app, http.MethodPost, path, farmerToken, fiber.Map{"body": "Bring gloves"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on second broadcast, got %d", resp.StatusCode)
	}

	list := doJSON(t, env.app, http.MethodGet, "/api/v1/threads", farmerToken, nil)
	var summaries []chat.ThreadSummary
	if err := json.NewDecoder(list.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("broadcasts must share one thread, got %d threads", len(summaries))
	}
	if summaries[0].LastMessage == nil || summaries[0].LastMessage.Body != "Bring gloves" {
		t.Error("second broadcast should be the thread's last message")
	}
}

func TestThreadsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := doJSON(t, env.app, http.MethodGet, "/api/v1/threads", "", nil)
	if resp.StatusCode == http.StatusOK {
		t.Fatal("unauthenticated request must not succeed")
	}
}
