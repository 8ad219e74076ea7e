package studycard

import (
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/keepsake/internal/app/system/blobstore"
	"github.com/dalemusser/keepsake/internal/domain"
	"github.com/dalemusser/keepsake/internal/domain/models"
	"github.com/dalemusser/keepsake/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(testutil.SetupTestDB(t), zap.NewNop())
}

func newTestBlobs(t *testing.T) blobstore.Store {
	t.Helper()
	blobs, err := blobstore.NewLocal(blobstore.Config{LocalPath: t.TempDir(), LocalURL: "/files"})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return blobs
}

func TestStore_Create(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cost := 12.5
	card, err := store.Create(ctx, CreateInput{
		Title:         "Solar system",
		Description:   "Planets in order",
		Category:      "Science",
		Difficulty:    models.DifficultyEasy,
		Tags:          "space,astronomy",
		Rating:        4,
		EstimatedCost: &cost,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if card.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if card.IsCompleted {
		t.Error("new cards should not be completed")
	}
	if card.Difficulty != models.DifficultyEasy {
		t.Errorf("Difficulty = %q, want easy", card.Difficulty)
	}
	if card.EstimatedCost == nil || *card.EstimatedCost != 12.5 {
		t.Errorf("EstimatedCost = %v, want 12.5", card.EstimatedCost)
	}
}

func TestStore_Create_DefaultsDifficulty(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	card, err := store.Create(ctx, CreateInput{Title: "T", Description: "D"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if card.Difficulty != models.DifficultyMedium {
		t.Errorf("Difficulty = %q, want medium", card.Difficulty)
	}
}

func TestStore_Create_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	negCost := -1.0
	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing title", CreateInput{Description: "D"}},
		{"title too long", CreateInput{Title: strings.Repeat("x", 256), Description: "D"}},
		{"missing description", CreateInput{Title: "T"}},
		{"bad difficulty", CreateInput{Title: "T", Description: "D", Difficulty: "impossible"}},
		{"rating too high", CreateInput{Title: "T", Description: "D", Rating: 6}},
		{"negative cost", CreateInput{Title: "T", Description: "D", EstimatedCost: &negCost}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.input); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestStore_Update(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	card, _ := store.Create(ctx, CreateInput{Title: "Before", Description: "D"})

	title := "After"
	completed := true
	rating := 5
	updated, err := store.Update(ctx, card.ID, UpdateInput{
		Title:       &title,
		IsCompleted: &completed,
		Rating:      &rating,
	}, nil)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != "After" {
		t.Errorf("Title = %q, want After", updated.Title)
	}
	if !updated.IsCompleted {
		t.Error("IsCompleted should be true")
	}
	if updated.Rating != 5 {
		t.Errorf("Rating = %d, want 5", updated.Rating)
	}
	// Unchanged field
	if updated.Description != "D" {
		t.Errorf("Description = %q, want D", updated.Description)
	}
}

func TestStore_Update_DeletesReplacedImageBlob(t *testing.T) {
	store := newTestStore(t)
	blobs := newTestBlobs(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	oldKey := "cards/old-image.webp"
	if err := blobs.Put(ctx, oldKey, strings.NewReader("old"), "image/webp"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	card, _ := store.Create(ctx, CreateInput{
		Title:        "T",
		Description:  "D",
		ImageBlobKey: oldKey,
	})

	newKey := "cards/new-image.webp"
	if _, err := store.Update(ctx, card.ID, UpdateInput{ImageBlobKey: &newKey}, blobs); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, err := blobs.Get(ctx, oldKey); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("old image blob should be deleted, Get() error = %v", err)
	}
}

func TestStore_Update_DeletesRemovedAttachmentBlobs(t *testing.T) {
	store := newTestStore(t)
	blobs := newTestBlobs(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	keepKey := "cards/keep.pdf"
	dropKey := "cards/drop.pdf"
	for _, k := range []string{keepKey, dropKey} {
		if err := blobs.Put(ctx, k, strings.NewReader("data"), "application/pdf"); err != nil {
			t.Fatalf("Put(%s) error = %v", k, err)
		}
	}

	card, _ := store.Create(ctx, CreateInput{
		Title:       "T",
		Description: "D",
		Attachments: []models.Attachment{
			{FileName: "keep.pdf", BlobKey: keepKey, Kind: models.AttachmentKindFile},
			{FileName: "drop.pdf", BlobKey: dropKey, Kind: models.AttachmentKindFile},
		},
	})

	remaining := []models.Attachment{
		{FileName: "keep.pdf", BlobKey: keepKey, Kind: models.AttachmentKindFile},
	}
	if _, err := store.Update(ctx, card.ID, UpdateInput{Attachments: &remaining}, blobs); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, err := blobs.Get(ctx, dropKey); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("removed attachment blob should be deleted, Get() error = %v", err)
	}
	if _, err := blobs.Get(ctx, keepKey); err != nil {
		t.Errorf("kept attachment blob should remain, Get() error = %v", err)
	}
}

func TestStore_Delete_RemovesBlobs(t *testing.T) {
	store := newTestStore(t)
	blobs := newTestBlobs(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	imageKey := "cards/image.webp"
	attKey := "cards/notes.pdf"
	for _, k := range []string{imageKey, attKey} {
		if err := blobs.Put(ctx, k, strings.NewReader("data"), "application/octet-stream"); err != nil {
			t.Fatalf("Put(%s) error = %v", k, err)
		}
	}

	card, _ := store.Create(ctx, CreateInput{
		Title:        "T",
		Description:  "D",
		ImageBlobKey: imageKey,
		Attachments: []models.Attachment{
			{FileName: "notes.pdf", BlobKey: attKey, Kind: models.AttachmentKindFile},
		},
	})

	if err := store.Delete(ctx, card.ID, blobs); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := store.GetByID(ctx, card.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	for _, k := range []string{imageKey, attKey} {
		if _, err := blobs.Get(ctx, k); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("blob %s should be deleted, Get() error = %v", k, err)
		}
	}
}

func TestStore_List_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.Create(ctx, CreateInput{Title: "Algebra basics", Description: "Equations", Category: "Math", Difficulty: models.DifficultyEasy})
	store.Create(ctx, CreateInput{Title: "Calculus", Description: "Derivatives", Category: "Math", Difficulty: models.DifficultyHard})
	store.Create(ctx, CreateInput{Title: "Grammar", Description: "Nouns and verbs", Category: "Language", Difficulty: models.DifficultyEasy})

	byCategory, _, err := store.List(ctx, ListOptions{Category: "Math"})
	if err != nil {
		t.Fatalf("List(category) error = %v", err)
	}
	if len(byCategory) != 2 {
		t.Errorf("category filter returned %d cards, want 2", len(byCategory))
	}

	byDifficulty, _, err := store.List(ctx, ListOptions{Difficulty: models.DifficultyHard})
	if err != nil {
		t.Fatalf("List(difficulty) error = %v", err)
	}
	if len(byDifficulty) != 1 || byDifficulty[0].Title != "Calculus" {
		t.Errorf("difficulty filter returned %d cards", len(byDifficulty))
	}

	// Case-insensitive search across title and description
	bySearch, _, err := store.List(ctx, ListOptions{Search: "DERIVATIVES"})
	if err != nil {
		t.Fatalf("List(search) error = %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].Title != "Calculus" {
		t.Errorf("search returned %d cards", len(bySearch))
	}
}

func TestStore_List_BadDifficulty(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := store.List(ctx, ListOptions{Difficulty: "extreme"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("List() error = %v, want ErrValidation", err)
	}
}

func TestStore_List_CursorPagination(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, CreateInput{Title: "Card", Description: "D"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	page1, next, err := store.List(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page1) != 2 || next == "" {
		t.Fatalf("page1 = %d cards, next = %q", len(page1), next)
	}

	page2, next2, err := store.List(ctx, ListOptions{Limit: 2, Cursor: next})
	if err != nil {
		t.Fatalf("List() page2 error = %v", err)
	}
	if len(page2) != 1 || next2 != "" {
		t.Errorf("page2 = %d cards, next = %q", len(page2), next2)
	}
}

func TestStore_Categories(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.Create(ctx, CreateInput{Title: "A", Description: "D", Category: "Science"})
	store.Create(ctx, CreateInput{Title: "B", Description: "D", Category: "Math"})
	store.Create(ctx, CreateInput{Title: "C", Description: "D", Category: "Math"})
	store.Create(ctx, CreateInput{Title: "E", Description: "D"})

	categories, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}

	want := []string{"Math", "Science"}
	if len(categories) != len(want) {
		t.Fatalf("Categories() = %v, want %v", categories, want)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Errorf("Categories()[%d] = %q, want %q", i, categories[i], want[i])
		}
	}
}

func TestStore_GetStats(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	completed := true
	a, _ := store.Create(ctx, CreateInput{Title: "A", Description: "D", Rating: 4})
	store.Create(ctx, CreateInput{Title: "B", Description: "D", Rating: 5})
	store.Create(ctx, CreateInput{Title: "C", Description: "D"}) // unrated
	store.Update(ctx, a.ID, UpdateInput{IsCompleted: &completed}, nil)

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.Completed != 1 {
		t.Errorf("Completed = %d, want 1", stats.Completed)
	}
	// Unrated cards are excluded from the average: (4+5)/2 = 4.5
	if stats.AvgRating != 4.5 {
		t.Errorf("AvgRating = %v, want 4.5", stats.AvgRating)
	}
}

func TestStore_GetStats_NoRatedCards(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.Create(ctx, CreateInput{Title: "A", Description: "D"})

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.AvgRating != 0 {
		t.Errorf("AvgRating = %v, want 0", stats.AvgRating)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}
