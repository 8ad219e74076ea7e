// Package media provides storage for uploaded media item records.
package media

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/keepsake/internal/app/store/storeutil"
	"github.com/dalemusser/keepsake/internal/app/system/blobstore"
	"github.com/dalemusser/keepsake/internal/domain"
	"github.com/dalemusser/keepsake/internal/domain/models"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// sendDateLayout is the calendar-date format used by the daily planner.
const sendDateLayout = "2006-01-02"

// Store provides access to the media_items collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new media store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("media_items"),
	}
}

func validateSendDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(sendDateLayout, date); err != nil {
		return &domain.ValidationError{Message: "send date must be formatted YYYY-MM-DD"}
	}
	return nil
}

// CreateInput contains the input for creating a media item record.
type CreateInput struct {
	FileName     string
	OriginalName string
	MimeType     string
	FileSize     int64
	BlobKey      string
	BlobURL      string
	FolderID     *primitive.ObjectID
	Note         string
	SendDate     string
}

// Create inserts a media item record.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.MediaItem, error) {
	if input.FileName == "" {
		return nil, &domain.ValidationError{Message: "file name is required"}
	}
	if input.BlobKey == "" {
		return nil, &domain.ValidationError{Message: "blob key is required"}
	}
	if err := validateSendDate(input.SendDate); err != nil {
		return nil, err
	}

	now := time.Now()
	item := models.MediaItem{
		ID:           primitive.NewObjectID(),
		FileName:     input.FileName,
		FileNameCI:   text.Fold(input.FileName),
		OriginalName: input.OriginalName,
		MimeType:     input.MimeType,
		FileSize:     input.FileSize,
		BlobKey:      input.BlobKey,
		BlobURL:      input.BlobURL,
		FolderID:     input.FolderID,
		Note:         input.Note,
		SendDate:     input.SendDate,
		Sent:         false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.c.InsertOne(ctx, item); err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	return &item, nil
}

// GetByID retrieves a media item by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.MediaItem, error) {
	var item models.MediaItem
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, storeutil.WrapNotFound(err, "media item not found")
	}
	return &item, nil
}

// UpdateInput contains the updatable fields of a media item. Nil pointers
// leave the field unchanged; SendDate and FolderID support clearing via
// ClearSendDate/ClearFolder.
type UpdateInput struct {
	Note          *string
	SendDate      *string
	ClearSendDate bool
	Sent          *bool
	FolderID      *primitive.ObjectID
	ClearFolder   bool
}

// Update applies the non-nil fields of input to a media item.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) (*models.MediaItem, error) {
	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	if input.Note != nil {
		set["note"] = *input.Note
	}
	if input.ClearSendDate {
		unset["send_date"] = ""
	} else if input.SendDate != nil {
		if err := validateSendDate(*input.SendDate); err != nil {
			return nil, err
		}
		set["send_date"] = *input.SendDate
	}
	if input.Sent != nil {
		set["sent"] = *input.Sent
	}
	if input.ClearFolder {
		unset["folder_id"] = ""
	} else if input.FolderID != nil {
		set["folder_id"] = *input.FolderID
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	if res.MatchedCount == 0 {
		return nil, &domain.NotFoundError{Message: "media item not found"}
	}
	return s.GetByID(ctx, id)
}

// ListOptions filters and paginates media listings.
//
// FolderID and RootOnly select the folder scope: a specific folder, only
// items outside any folder, or (both zero) no folder filter.
type ListOptions struct {
	FolderID *primitive.ObjectID
	RootOnly bool
	Sent     *bool
	SendDate string
	Limit    int64
	Cursor   string
}

// List returns a page of media items, newest first, and the cursor for the
// next page ("" when exhausted). The cursor is the ObjectID of the last
// item on the page; pages are keyed strictly below it.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]models.MediaItem, string, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	filter := bson.M{}
	if opts.FolderID != nil {
		filter["folder_id"] = *opts.FolderID
	} else if opts.RootOnly {
		filter["folder_id"] = nil
	}
	if opts.Sent != nil {
		filter["sent"] = *opts.Sent
	}
	if opts.SendDate != "" {
		if err := validateSendDate(opts.SendDate); err != nil {
			return nil, "", err
		}
		filter["send_date"] = opts.SendDate
	}

	cursorID, err := storeutil.DecodeCursor(opts.Cursor)
	if err != nil {
		return nil, "", err
	}
	if !cursorID.IsZero() {
		filter["_id"] = bson.M{"$lt": cursorID}
	}

	// Fetch one extra row to learn whether another page exists
	findOpts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, "", &domain.IOError{Message: "database error", Err: err}
	}
	defer cur.Close(ctx)

	var items []models.MediaItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, "", &domain.IOError{Message: "database error", Err: err}
	}

	nextCursor := ""
	if int64(len(items)) > limit {
		items = items[:limit]
		nextCursor = items[len(items)-1].ID.Hex()
	}
	return items, nextCursor, nil
}

// ListByDate returns every item scheduled for a send date, newest first.
func (s *Store) ListByDate(ctx context.Context, date string) ([]models.MediaItem, error) {
	if date == "" {
		return nil, &domain.ValidationError{Message: "date is required"}
	}
	if err := validateSendDate(date); err != nil {
		return nil, err
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"send_date": date}, findOpts)
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	defer cur.Close(ctx)

	var items []models.MediaItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	return items, nil
}

// MarkSent flags the given items as sent. A single UpdateMany keeps the
// batch atomic; items already sent are unaffected.
func (s *Store) MarkSent(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, &domain.ValidationError{Message: "no media item ids given"}
	}

	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"sent": true, "updated_at": time.Now()}})
	if err != nil {
		return 0, &domain.IOError{Message: "database error", Err: err}
	}
	return res.ModifiedCount, nil
}

// AssignToDate schedules the given items for a send date in a single
// UpdateMany.
func (s *Store) AssignToDate(ctx context.Context, ids []primitive.ObjectID, date string) (int64, error) {
	if len(ids) == 0 {
		return 0, &domain.ValidationError{Message: "no media item ids given"}
	}
	if date == "" {
		return 0, &domain.ValidationError{Message: "date is required"}
	}
	if err := validateSendDate(date); err != nil {
		return 0, err
	}

	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"send_date": date, "updated_at": time.Now()}})
	if err != nil {
		return 0, &domain.IOError{Message: "database error", Err: err}
	}
	return res.ModifiedCount, nil
}

// Delete removes a media item record and its blob. The record is removed
// first; if the blob delete then fails, the record is reinserted so the
// catalog and the blob store never disagree for long.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, blobs blobstore.Store) error {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return &domain.IOError{Message: "database error", Err: err}
	}

	if blobs != nil && item.BlobKey != "" {
		if err := blobs.Delete(ctx, item.BlobKey); err != nil {
			// Compensate: put the record back so the item is not orphaned
			if _, insErr := s.c.InsertOne(ctx, item); insErr != nil {
				return &domain.IOError{Message: "blob delete failed and record could not be restored", Err: insErr}
			}
			return &domain.IOError{Message: "blob delete failed", Err: err}
		}
	}
	return nil
}

// Stats summarizes the media catalog.
type Stats struct {
	Total   int64 `json:"total"`
	Sent    int64 `json:"sent"`
	Pending int64 `json:"pending"`
}

// GetStats returns total/sent/pending counts.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	total, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	sent, err := s.c.CountDocuments(ctx, bson.M{"sent": true})
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	return &Stats{Total: total, Sent: sent, Pending: total - sent}, nil
}

// CountByFolder returns the number of items in a folder. Pass nil to count
// items outside any folder.
func (s *Store) CountByFolder(ctx context.Context, folderID *primitive.ObjectID) (int64, error) {
	filter := bson.M{"folder_id": nil}
	if folderID != nil {
		filter["folder_id"] = *folderID
	}
	n, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return 0, &domain.IOError{Message: "database error", Err: err}
	}
	return n, nil
}

// DetachFolder unsets the folder reference on every item in a folder.
// Called by the folder store when a folder is deleted.
func (s *Store) DetachFolder(ctx context.Context, folderID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"folder_id": folderID},
		bson.M{"$unset": bson.M{"folder_id": ""}, "$set": bson.M{"updated_at": time.Now()}})
	if err != nil {
		return &domain.IOError{Message: "database error", Err: err}
	}
	return nil
}
