package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty levels for study cards.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// ValidDifficulty reports whether d is one of the known difficulty levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Attachment kinds.
const (
	AttachmentKindCardImage = "card-image"
	AttachmentKindFile      = "attachment"
)

// Attachment is a file attached to a study card. Embedded, not a standalone
// collection.
type Attachment struct {
	FileName     string `bson:"file_name" json:"fileName"`
	OriginalName string `bson:"original_name" json:"originalName"`
	MimeType     string `bson:"mime_type" json:"mimeType"`
	FileSize     int64  `bson:"file_size" json:"fileSize"`
	BlobKey      string `bson:"blob_key" json:"blobKey"`
	URL          string `bson:"url" json:"url"`
	Subfolder    string `bson:"subfolder,omitempty" json:"subfolder,omitempty"`
	Kind         string `bson:"kind" json:"kind"` // card-image or attachment
}

// StudyCard represents a flashcard-like study record. Self-contained; no
// relation to Folder.
type StudyCard struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	TitleCI       string             `bson:"title_ci" json:"-"`
	Description   string             `bson:"description" json:"description"`
	DescriptionCI string             `bson:"description_ci" json:"-"`
	ReferenceURL  string             `bson:"reference_url,omitempty" json:"referenceUrl,omitempty"`
	YoutubeURL    string             `bson:"youtube_url,omitempty" json:"youtubeUrl,omitempty"`
	ImageURL      string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	ImageBlobKey  string             `bson:"image_blob_key,omitempty" json:"imageBlobKey,omitempty"`
	Attachments   []Attachment       `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Category      string             `bson:"category,omitempty" json:"category,omitempty"`
	Difficulty    string             `bson:"difficulty" json:"difficulty"`
	Tags          string             `bson:"tags,omitempty" json:"tags,omitempty"` // comma-separated
	IsCompleted   bool               `bson:"is_completed" json:"isCompleted"`
	Rating        int                `bson:"rating" json:"rating"` // 0-5, 0 = unrated
	EstimatedCost *float64           `bson:"estimated_cost,omitempty" json:"estimatedCost,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}
