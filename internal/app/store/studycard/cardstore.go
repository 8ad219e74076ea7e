// Package studycard provides storage for study card records.
package studycard

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dalemusser/keepsake/internal/app/store/storeutil"
	"github.com/dalemusser/keepsake/internal/app/system/blobstore"
	"github.com/dalemusser/keepsake/internal/domain"
	"github.com/dalemusser/keepsake/internal/domain/models"
)

const (
	maxTitleLength = 255
	defaultLimit   = 50
	maxLimit       = 100
)

// Store provides access to the study_cards collection.
type Store struct {
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a new study card store.
func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		c:   db.Collection("study_cards"),
		log: log,
	}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &domain.ValidationError{Message: "title is required"}
	}
	if len(title) > maxTitleLength {
		return "", &domain.ValidationError{Message: "title is too long"}
	}
	return title, nil
}

func validateRating(rating int) error {
	if rating < 0 || rating > 5 {
		return &domain.ValidationError{Message: "rating must be between 0 and 5"}
	}
	return nil
}

// CreateInput contains the input for creating a study card.
type CreateInput struct {
	Title         string
	Description   string
	ReferenceURL  string
	YoutubeURL    string
	ImageURL      string
	ImageBlobKey  string
	Attachments   []models.Attachment
	Category      string
	Difficulty    string
	Tags          string
	Rating        int
	EstimatedCost *float64
	Notes         string
}

// Create inserts a study card.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.StudyCard, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, &domain.ValidationError{Message: "description is required"}
	}

	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	if !models.ValidDifficulty(difficulty) {
		return nil, &domain.ValidationError{Message: "difficulty must be easy, medium, or hard"}
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if input.EstimatedCost != nil && *input.EstimatedCost < 0 {
		return nil, &domain.ValidationError{Message: "estimated cost cannot be negative"}
	}

	now := time.Now()
	card := models.StudyCard{
		ID:            primitive.NewObjectID(),
		Title:         title,
		TitleCI:       text.Fold(title),
		Description:   description,
		DescriptionCI: text.Fold(description),
		ReferenceURL:  input.ReferenceURL,
		YoutubeURL:    input.YoutubeURL,
		ImageURL:      input.ImageURL,
		ImageBlobKey:  input.ImageBlobKey,
		Attachments:   input.Attachments,
		Category:      strings.TrimSpace(input.Category),
		Difficulty:    difficulty,
		Tags:          input.Tags,
		Rating:        input.Rating,
		EstimatedCost: input.EstimatedCost,
		Notes:         input.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := s.c.InsertOne(ctx, card); err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	return &card, nil
}

// GetByID retrieves a study card by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.StudyCard, error) {
	var card models.StudyCard
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&card); err != nil {
		return nil, storeutil.WrapNotFound(err, "study card not found")
	}
	return &card, nil
}

// UpdateInput contains the updatable fields of a study card. Nil pointers
// leave the field unchanged.
type UpdateInput struct {
	Title              *string
	Description        *string
	ReferenceURL       *string
	YoutubeURL         *string
	ImageURL           *string
	ImageBlobKey       *string
	Attachments        *[]models.Attachment
	Category           *string
	Difficulty         *string
	Tags               *string
	IsCompleted        *bool
	Rating             *int
	EstimatedCost      *float64
	ClearEstimatedCost bool
	Notes              *string
}

// Update applies the non-nil fields of input. When the image blob key
// changes, the previous image blob is deleted; when the attachment list is
// replaced, blobs of removed attachments are deleted. Both are best effort
// so a storage hiccup cannot fail the metadata update.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput, blobs blobstore.Store) (*models.StudyCard, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		set["title"] = title
		set["title_ci"] = text.Fold(title)
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, &domain.ValidationError{Message: "description is required"}
		}
		set["description"] = description
		set["description_ci"] = text.Fold(description)
	}
	if input.ReferenceURL != nil {
		set["reference_url"] = *input.ReferenceURL
	}
	if input.YoutubeURL != nil {
		set["youtube_url"] = *input.YoutubeURL
	}
	if input.ImageURL != nil {
		set["image_url"] = *input.ImageURL
	}
	if input.ImageBlobKey != nil {
		set["image_blob_key"] = *input.ImageBlobKey
	}
	if input.Attachments != nil {
		set["attachments"] = *input.Attachments
	}
	if input.Category != nil {
		set["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Difficulty != nil {
		if !models.ValidDifficulty(*input.Difficulty) {
			return nil, &domain.ValidationError{Message: "difficulty must be easy, medium, or hard"}
		}
		set["difficulty"] = *input.Difficulty
	}
	if input.Tags != nil {
		set["tags"] = *input.Tags
	}
	if input.IsCompleted != nil {
		set["is_completed"] = *input.IsCompleted
	}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		set["rating"] = *input.Rating
	}
	if input.ClearEstimatedCost {
		unset["estimated_cost"] = ""
	} else if input.EstimatedCost != nil {
		if *input.EstimatedCost < 0 {
			return nil, &domain.ValidationError{Message: "estimated cost cannot be negative"}
		}
		set["estimated_cost"] = *input.EstimatedCost
	}
	if input.Notes != nil {
		set["notes"] = *input.Notes
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}

	s.cleanupReplacedBlobs(ctx, current, input, blobs)

	return s.GetByID(ctx, id)
}

// cleanupReplacedBlobs removes blobs orphaned by an update.
func (s *Store) cleanupReplacedBlobs(ctx context.Context, before *models.StudyCard, input UpdateInput, blobs blobstore.Store) {
	if blobs == nil {
		return
	}

	if input.ImageBlobKey != nil && before.ImageBlobKey != "" && before.ImageBlobKey != *input.ImageBlobKey {
		if err := blobs.Delete(ctx, before.ImageBlobKey); err != nil {
			s.log.Warn("failed to delete replaced card image blob",
				zap.String("blob_key", before.ImageBlobKey),
				zap.Error(err))
		}
	}

	if input.Attachments != nil {
		kept := make(map[string]struct{}, len(*input.Attachments))
		for _, a := range *input.Attachments {
			kept[a.BlobKey] = struct{}{}
		}
		for _, a := range before.Attachments {
			if _, ok := kept[a.BlobKey]; ok || a.BlobKey == "" {
				continue
			}
			if err := blobs.Delete(ctx, a.BlobKey); err != nil {
				s.log.Warn("failed to delete removed attachment blob",
					zap.String("blob_key", a.BlobKey),
					zap.Error(err))
			}
		}
	}
}

// Delete removes a study card along with its image and attachment blobs.
// Blob deletion is best effort.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, blobs blobstore.Store) error {
	card, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return &domain.IOError{Message: "database error", Err: err}
	}

	if blobs != nil {
		if card.ImageBlobKey != "" {
			if err := blobs.Delete(ctx, card.ImageBlobKey); err != nil {
				s.log.Warn("failed to delete card image blob",
					zap.String("blob_key", card.ImageBlobKey),
					zap.Error(err))
			}
		}
		for _, a := range card.Attachments {
			if a.BlobKey == "" {
				continue
			}
			if err := blobs.Delete(ctx, a.BlobKey); err != nil {
				s.log.Warn("failed to delete attachment blob",
					zap.String("blob_key", a.BlobKey),
					zap.Error(err))
			}
		}
	}
	return nil
}

// ListOptions filters and paginates study card listings.
type ListOptions struct {
	Category    string
	Difficulty  string
	IsCompleted *bool
	Search      string
	Limit       int64
	Cursor      string
}

// List returns a page of study cards, newest first, with a next-page
// cursor ("" when exhausted).
func (s *Store) List(ctx context.Context, opts ListOptions) ([]models.StudyCard, string, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	filter := bson.M{}
	if opts.Category != "" {
		filter["category"] = opts.Category
	}
	if opts.Difficulty != "" {
		if !models.ValidDifficulty(opts.Difficulty) {
			return nil, "", &domain.ValidationError{Message: "difficulty must be easy, medium, or hard"}
		}
		filter["difficulty"] = opts.Difficulty
	}
	if opts.IsCompleted != nil {
		filter["is_completed"] = *opts.IsCompleted
	}
	if q := strings.TrimSpace(opts.Search); q != "" {
		pattern := regexp.QuoteMeta(text.Fold(q))
		filter["$or"] = bson.A{
			bson.M{"title_ci": bson.M{"$regex": pattern}},
			bson.M{"description_ci": bson.M{"$regex": pattern}},
		}
	}

	cursorID, err := storeutil.DecodeCursor(opts.Cursor)
	if err != nil {
		return nil, "", err
	}
	if !cursorID.IsZero() {
		filter["_id"] = bson.M{"$lt": cursorID}
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, "", &domain.IOError{Message: "database error", Err: err}
	}
	defer cur.Close(ctx)

	var cards []models.StudyCard
	if err := cur.All(ctx, &cards); err != nil {
		return nil, "", &domain.IOError{Message: "database error", Err: err}
	}

	nextCursor := ""
	if int64(len(cards)) > limit {
		cards = cards[:limit]
		nextCursor = cards[len(cards)-1].ID.Hex()
	}
	return cards, nextCursor, nil
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	raw, err := s.c.Distinct(ctx, "category", bson.M{"category": bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}

	categories := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// Stats summarizes the card catalog. AvgRating averages only cards with a
// rating above zero and is 0 when none qualify.
type Stats struct {
	Total     int64   `json:"total"`
	Completed int64   `json:"completed"`
	AvgRating float64 `json:"avgRating"`
}

// GetStats returns total/completed counts and the average rating rounded
// to one decimal place.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	total, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	completed, err := s.c.CountDocuments(ctx, bson.M{"is_completed": true})
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"rating": bson.M{"$gt": 0}}}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"avg": bson.M{"$avg": "$rating"},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	defer cur.Close(ctx)

	avg := 0.0
	var result []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &result); err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	if len(result) > 0 {
		avg = math.Round(result[0].Avg*10) / 10
	}

	return &Stats{Total: total, Completed: completed, AvgRating: avg}, nil
}
