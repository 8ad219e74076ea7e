package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder represents a node in the media folder tree.
//
// StoragePath is the materialized path: the "/"-joined chain of ancestor
// names from the root down to this folder. It is kept consistent with
// ParentID at all times: create computes it, rename and move recompute it
// for the folder and every descendant.
type Folder struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	NameCI      string              `bson:"name_ci" json:"-"`                              // Case-insensitive for sorting/search
	ParentID    *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"` // nil = root folder
	StoragePath string              `bson:"storage_path" json:"storagePath"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

// IsRoot returns true if the folder is at the root level.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}
