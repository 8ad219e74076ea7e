package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaItem represents an uploaded file's metadata.
//
// FolderID is a weak reference: deleting a folder detaches its media items
// (folder_id unset) rather than deleting them. SendDate is a "2006-01-02"
// calendar date used by the daily planner; Sent is a one-way flag.
type MediaItem struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FileName     string              `bson:"file_name" json:"fileName"` // Name as stored (unique per upload)
	FileNameCI   string              `bson:"file_name_ci" json:"-"`
	OriginalName string              `bson:"original_name" json:"originalName"`
	MimeType     string              `bson:"mime_type" json:"mimeType"`
	FileSize     int64               `bson:"file_size" json:"fileSize"`
	BlobKey      string              `bson:"blob_key" json:"blobKey"`
	BlobURL      string              `bson:"blob_url" json:"blobUrl"`
	FolderID     *primitive.ObjectID `bson:"folder_id,omitempty" json:"folderId,omitempty"`
	Note         string              `bson:"note,omitempty" json:"note,omitempty"`
	SendDate     string              `bson:"send_date,omitempty" json:"sendDate,omitempty"`
	Sent         bool                `bson:"sent" json:"sent"`
	CreatedAt    time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updatedAt"`
}

// IsInRoot returns true if the item is at the root level (not in any folder).
func (m *MediaItem) IsInRoot() bool {
	return m.FolderID == nil
}
