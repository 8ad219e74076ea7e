package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/keepsake/internal/app/system/blobstore"
	"github.com/dalemusser/keepsake/internal/domain"
	"github.com/dalemusser/keepsake/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(testutil.SetupTestDB(t))
}

func createItem(t *testing.T, store *Store, ctx context.Context, name string, folderID *primitive.ObjectID) *primitive.ObjectID {
	t.Helper()
	item, err := store.Create(ctx, CreateInput{
		FileName:     name,
		OriginalName: name,
		MimeType:     "image/webp",
		FileSize:     1024,
		BlobKey:      "media/" + name,
		BlobURL:      "/files/media/" + name,
		FolderID:     folderID,
	})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return &item.ID
}

func TestStore_Create(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item, err := store.Create(ctx, CreateInput{
		FileName: "photo.webp",
		MimeType: "image/webp",
		FileSize: 2048,
		BlobKey:  "media/photo.webp",
		BlobURL:  "/files/media/photo.webp",
		Note:     "birthday",
		SendDate: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if item.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if item.Sent {
		t.Error("new items should not be sent")
	}
	if item.Note != "birthday" {
		t.Errorf("Note = %q, want birthday", item.Note)
	}
	if item.SendDate != "2026-09-01" {
		t.Errorf("SendDate = %q, want 2026-09-01", item.SendDate)
	}
}

func TestStore_Create_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing file name", CreateInput{BlobKey: "k"}},
		{"missing blob key", CreateInput{FileName: "f"}},
		{"bad send date", CreateInput{FileName: "f", BlobKey: "k", SendDate: "09/01/2026"}},
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

	id := createItem(t, store, ctx, "a.webp", nil)

	note := "updated note"
	date := "2026-12-25"
	sent := true
	item, err := store.Update(ctx, *id, UpdateInput{
		Note:     &note,
		SendDate: &date,
		Sent:     &sent,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if item.Note != note {
		t.Errorf("Note = %q, want %q", item.Note, note)
	}
	if item.SendDate != date {
		t.Errorf("SendDate = %q, want %q", item.SendDate, date)
	}
	if !item.Sent {
		t.Error("Sent should be true")
	}
}

func TestStore_Update_ClearsFields(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	folderID := primitive.NewObjectID()
	id := createItem(t, store, ctx, "a.webp", &folderID)

	date := "2026-12-25"
	if _, err := store.Update(ctx, *id, UpdateInput{SendDate: &date}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	item, err := store.Update(ctx, *id, UpdateInput{ClearSendDate: true, ClearFolder: true})
	if err != nil {
		t.Fatalf("Update() clear error = %v", err)
	}
	if item.SendDate != "" {
		t.Errorf("SendDate = %q, want empty", item.SendDate)
	}
	if item.FolderID != nil {
		t.Errorf("FolderID = %v, want nil", item.FolderID)
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	note := "x"
	_, err := store.Update(ctx, primitive.NewObjectID(), UpdateInput{Note: &note})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestStore_List_CursorPagination(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var ids []primitive.ObjectID
	for i := 0; i < 5; i++ {
		id := createItem(t, store, ctx, fmt.Sprintf("item-%d.webp", i), nil)
		ids = append(ids, *id)
	}

	page1, next, err := store.List(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("page1 length = %d, want 2", len(page1))
	}
	if next == "" {
		t.Fatal("nextCursor should not be empty")
	}
	// Newest first: last created comes first
	if page1[0].ID != ids[4] {
		t.Errorf("page1[0].ID = %v, want %v", page1[0].ID, ids[4])
	}

	page2, next2, err := store.List(ctx, ListOptions{Limit: 2, Cursor: next})
	if err != nil {
		t.Fatalf("List() page2 error = %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page2 length = %d, want 2", len(page2))
	}
	if page2[0].ID != ids[2] {
		t.Errorf("page2[0].ID = %v, want %v", page2[0].ID, ids[2])
	}

	page3, next3, err := store.List(ctx, ListOptions{Limit: 2, Cursor: next2})
	if err != nil {
		t.Fatalf("List() page3 error = %v", err)
	}
	if len(page3) != 1 {
		t.Fatalf("page3 length = %d, want 1", len(page3))
	}
	if next3 != "" {
		t.Errorf("final nextCursor = %q, want empty", next3)
	}
}

func TestStore_List_InvalidCursor(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, _, err := store.List(ctx, ListOptions{Cursor: "not-an-object-id"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("List() error = %v, want ErrValidation", err)
	}
}

func TestStore_List_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	folderID := primitive.NewObjectID()
	inFolder := createItem(t, store, ctx, "in-folder.webp", &folderID)
	atRoot := createItem(t, store, ctx, "at-root.webp", nil)

	sent := true
	if _, err := store.Update(ctx, *inFolder, UpdateInput{Sent: &sent}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	byFolder, _, err := store.List(ctx, ListOptions{FolderID: &folderID})
	if err != nil {
		t.Fatalf("List(folder) error = %v", err)
	}
	if len(byFolder) != 1 || byFolder[0].ID != *inFolder {
		t.Errorf("folder filter returned %d items", len(byFolder))
	}

	roots, _, err := store.List(ctx, ListOptions{RootOnly: true})
	if err != nil {
		t.Fatalf("List(root) error = %v", err)
	}
	if len(roots) != 1 || roots[0].ID != *atRoot {
		t.Errorf("root filter returned %d items", len(roots))
	}

	notSent := false
	pending, _, err := store.List(ctx, ListOptions{Sent: &notSent})
	if err != nil {
		t.Fatalf("List(pending) error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != *atRoot {
		t.Errorf("sent filter returned %d items", len(pending))
	}
}

func TestStore_ListByDate(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := createItem(t, store, ctx, "a.webp", nil)
	createItem(t, store, ctx, "b.webp", nil)

	if _, err := store.AssignToDate(ctx, []primitive.ObjectID{*a}, "2026-09-15"); err != nil {
		t.Fatalf("AssignToDate() error = %v", err)
	}

	items, err := store.ListByDate(ctx, "2026-09-15")
	if err != nil {
		t.Fatalf("ListByDate() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != *a {
		t.Errorf("ListByDate() returned %d items", len(items))
	}

	if _, err := store.ListByDate(ctx, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("ListByDate(\"\") error = %v, want ErrValidation", err)
	}
}

func TestStore_MarkSent(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := createItem(t, store, ctx, "a.webp", nil)
	b := createItem(t, store, ctx, "b.webp", nil)
	createItem(t, store, ctx, "c.webp", nil)

	n, err := store.MarkSent(ctx, []primitive.ObjectID{*a, *b})
	if err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}
	if n != 2 {
		t.Errorf("modified = %d, want 2", n)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Total != 3 || stats.Sent != 2 || stats.Pending != 1 {
		t.Errorf("stats = %+v, want total=3 sent=2 pending=1", stats)
	}
}

func TestStore_MarkSent_EmptyIDs(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.MarkSent(ctx, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("MarkSent(nil) error = %v, want ErrValidation", err)
	}
}

func TestStore_AssignToDate_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := createItem(t, store, ctx, "a.webp", nil)

	if _, err := store.AssignToDate(ctx, []primitive.ObjectID{*id}, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("AssignToDate(\"\") error = %v, want ErrValidation", err)
	}
	if _, err := store.AssignToDate(ctx, []primitive.ObjectID{*id}, "Sept 1"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("AssignToDate(bad date) error = %v, want ErrValidation", err)
	}
}

// failingBlobStore fails every Delete, for exercising compensation.
type failingBlobStore struct {
	blobstore.Store
}

func (f *failingBlobStore) Delete(ctx context.Context, key string) error {
	return &domain.IOError{Message: "simulated outage"}
}

func (f *failingBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, &domain.NotFoundError{Message: "blob not found"}
}

func (f *failingBlobStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "", &domain.IOError{Message: "unsupported"}
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	blobs, err := blobstore.NewLocal(blobstore.Config{LocalPath: t.TempDir(), LocalURL: "/files"})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	item, err := store.Create(ctx, CreateInput{
		FileName: "doomed.webp",
		BlobKey:  "media/doomed.webp",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := blobs.Put(ctx, item.BlobKey, strings.NewReader("blob"), "image/webp"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if err := store.Delete(ctx, item.ID, blobs); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := store.GetByID(ctx, item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete_RestoresRecordOnBlobFailure(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	item, err := store.Create(ctx, CreateInput{
		FileName: "sticky.webp",
		BlobKey:  "media/sticky.webp",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err = store.Delete(ctx, item.ID, &failingBlobStore{})
	if !errors.Is(err, domain.ErrIO) {
		t.Fatalf("Delete() error = %v, want ErrIO", err)
	}

	// The record must still exist after the failed blob delete
	restored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID() after failed delete error = %v", err)
	}
	if restored.BlobKey != item.BlobKey {
		t.Errorf("BlobKey = %q, want %q", restored.BlobKey, item.BlobKey)
	}
}

func TestStore_CountByFolder(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	folderID := primitive.NewObjectID()
	createItem(t, store, ctx, "a.webp", &folderID)
	createItem(t, store, ctx, "b.webp", &folderID)
	createItem(t, store, ctx, "c.webp", nil)

	n, err := store.CountByFolder(ctx, &folderID)
	if err != nil {
		t.Fatalf("CountByFolder() error = %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	rootN, err := store.CountByFolder(ctx, nil)
	if err != nil {
		t.Fatalf("CountByFolder(nil) error = %v", err)
	}
	if rootN != 1 {
		t.Errorf("root count = %d, want 1", rootN)
	}
}

func TestStore_DetachFolder(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	folderID := primitive.NewObjectID()
	a := createItem(t, store, ctx, "a.webp", &folderID)
	b := createItem(t, store, ctx, "b.webp", nil)

	if err := store.DetachFolder(ctx, folderID); err != nil {
		t.Fatalf("DetachFolder() error = %v", err)
	}

	detached, err := store.GetByID(ctx, *a)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if detached.FolderID != nil {
		t.Errorf("FolderID = %v, want nil", detached.FolderID)
	}

	// Unrelated items untouched
	if _, err := store.GetByID(ctx, *b); err != nil {
		t.Errorf("GetByID(unrelated) error = %v", err)
	}
}
