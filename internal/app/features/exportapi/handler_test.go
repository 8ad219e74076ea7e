package exportapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/keepsake/internal/app/store/studycard"
	"github.com/dalemusser/keepsake/internal/testutil"
)

const testAPIKey = "export-test-key"

func setupExportRouter(t *testing.T) (http.Handler, *studycard.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	cards := studycard.New(db, logger)
	h := NewHandler(cards, logger)
	return Routes(h, testAPIKey, logger), cards
}

func TestExport(t *testing.T) {
	router, cards := setupExportRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seeded := []studycard.CreateInput{
		{Title: "Derivatives", Description: "Power rule", Category: "Math", Difficulty: "medium", Rating: 4},
		{Title: "Photosynthesis", Description: "Light reactions", Category: "Science", Difficulty: "easy", Rating: 5},
		{Title: "Integrals", Description: "Substitution", Category: "Math", Difficulty: "hard"},
	}
	for _, input := range seeded {
		if _, err := cards.Create(ctx, input); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("full export", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cards", nil)
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("export status = %d, want %d", rec.Code, http.StatusOK)
		}

		var resp struct {
			Cards       []json.RawMessage `json:"cards"`
			Categories  []string          `json:"categories"`
			Total       int64             `json:"total"`
			GeneratedAt string            `json:"generatedAt"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if len(resp.Cards) != 3 {
			t.Errorf("cards = %d, want 3", len(resp.Cards))
		}
		if resp.Total != 3 {
			t.Errorf("total = %d, want 3", resp.Total)
		}
		if len(resp.Categories) != 2 {
			t.Errorf("categories = %v, want [Math Science]", resp.Categories)
		}
		if resp.GeneratedAt == "" {
			t.Error("generatedAt should not be empty")
		}
	})

	t.Run("category filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cards?category=Math", nil)
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("export status = %d, want %d", rec.Code, http.StatusOK)
		}

		var resp struct {
			Cards []json.RawMessage `json:"cards"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Cards) != 2 {
			t.Errorf("cards = %d, want 2", len(resp.Cards))
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cards?limit=500", nil)
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("export status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestExportOne(t *testing.T) {
	router, cards := setupExportRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	card, err := cards.Create(ctx, studycard.CreateInput{
		Title:       "Derivatives",
		Description: "Power rule",
		Category:    "Math",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cards/"+card.ID.Hex(), nil)
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("export status = %d, want %d", rec.Code, http.StatusOK)
		}

		var resp struct {
			Card struct {
				Title string `json:"title"`
			} `json:"card"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Card.Title != "Derivatives" {
			t.Errorf("card title = %q, want %q", resp.Card.Title, "Derivatives")
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cards/not-a-hex-id", nil)
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("export status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestExportAuth(t *testing.T) {
	router, _ := setupExportRouter(t)

	t.Run("missing key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cards", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("export status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cards", nil)
		req.Header.Set("Authorization", "Bearer wrong-key")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("export status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}
