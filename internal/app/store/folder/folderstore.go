// Package folder provides storage for the media folder tree.
package folder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dalemusser/keepsake/internal/app/store/storeutil"
	"github.com/dalemusser/keepsake/internal/app/system/txn"
	"github.com/dalemusser/keepsake/internal/domain"
	"github.com/dalemusser/keepsake/internal/domain/models"
)

const maxNameLength = 255

// maxDepth bounds upward walks so a corrupted parent chain cannot loop
// forever.
const maxDepth = 64

// Store provides access to the folders collection.
type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a new folder store.
func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		db:  db,
		c:   db.Collection("folders"),
		log: log,
	}
}

// MediaDetacher unsets folder references on media items when a folder goes
// away. Implemented by the media store.
type MediaDetacher interface {
	DetachFolder(ctx context.Context, folderID primitive.ObjectID) error
}

// Crumb is one entry in a breadcrumb trail.
type Crumb struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &domain.ValidationError{Message: "folder name is required"}
	}
	if len(name) > maxNameLength {
		return "", &domain.ValidationError{Message: "folder name is too long"}
	}
	return name, nil
}

// CreateInput contains the input for creating a folder.
type CreateInput struct {
	Name     string
	ParentID *primitive.ObjectID
}

// Create creates a new folder. The storage path is computed from the
// parent's path so it never has to be derived at read time.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Folder, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	storagePath := name
	if input.ParentID != nil {
		parent, err := s.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		storagePath = parent.StoragePath + "/" + name
	}

	now := time.Now()
	folder := models.Folder{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		ParentID:    input.ParentID,
		StoragePath: storagePath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, folder); err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}

	return &folder, nil
}

// GetByID retrieves a folder by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&folder); err != nil {
		return nil, storeutil.WrapNotFound(err, "folder not found")
	}
	return &folder, nil
}

// Rename changes a folder's name and recomputes the storage path for the
// folder and every descendant. The cascade runs in a transaction so a
// partially renamed subtree is never visible.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, newName string) (*models.Folder, error) {
	name, err := validateName(newName)
	if err != nil {
		return nil, err
	}

	folder, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if folder.Name == name {
		return folder, nil
	}

	newPath := name
	if folder.ParentID != nil {
		parent, err := s.GetByID(ctx, *folder.ParentID)
		if err != nil {
			return nil, err
		}
		newPath = parent.StoragePath + "/" + name
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
			"name":         name,
			"name_ci":      text.Fold(name),
			"storage_path": newPath,
			"updated_at":   time.Now(),
		}})
		if err != nil {
			return err
		}
		return s.rewriteDescendantPaths(ctx, id, newPath)
	})
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}

	return s.GetByID(ctx, id)
}

// Move reparents a folder and recomputes the subtree's storage paths.
// Moving a folder under itself or one of its descendants is rejected.
func (s *Store) Move(ctx context.Context, id primitive.ObjectID, newParentID *primitive.ObjectID) (*models.Folder, error) {
	folder, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newPath := folder.Name
	if newParentID != nil {
		if *newParentID == id {
			return nil, &domain.ValidationError{Message: "cannot move a folder into itself"}
		}
		parent, err := s.GetByID(ctx, *newParentID)
		if err != nil {
			return nil, err
		}
		inSubtree, err := s.isDescendantOf(ctx, parent, id)
		if err != nil {
			return nil, err
		}
		if inSubtree {
			return nil, &domain.ValidationError{Message: "cannot move a folder into its own subtree"}
		}
		newPath = parent.StoragePath + "/" + folder.Name
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
			"parent_id":    newParentID,
			"storage_path": newPath,
			"updated_at":   time.Now(),
		}})
		if err != nil {
			return err
		}
		return s.rewriteDescendantPaths(ctx, id, newPath)
	})
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}

	return s.GetByID(ctx, id)
}

// isDescendantOf reports whether folder equals, or sits anywhere under,
// ancestorID. The parent links are followed rather than comparing storage
// paths, which same-named siblings can alias.
func (s *Store) isDescendantOf(ctx context.Context, folder *models.Folder, ancestorID primitive.ObjectID) (bool, error) {
	for hops := 0; ; hops++ {
		if folder.ID == ancestorID {
			return true, nil
		}
		if folder.ParentID == nil {
			return false, nil
		}
		if hops >= maxDepth {
			return false, &domain.CycleDetectedError{Message: "folder hierarchy exceeds maximum depth"}
		}
		parent, err := s.GetByID(ctx, *folder.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		folder = parent
	}
}

// rewriteDescendantPaths recomputes the storage path for everything under a
// folder by walking the parent-child links, each child's path being its
// parent's path plus its own name. Walking the adjacency, not the old path
// prefix, means a same-named sibling's subtree is never touched.
func (s *Store) rewriteDescendantPaths(ctx context.Context, parentID primitive.ObjectID, parentPath string) error {
	children, err := s.ListByParent(ctx, &parentID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, child := range children {
		childPath := parentPath + "/" + child.Name
		if child.StoragePath != childPath {
			_, err := s.c.UpdateOne(ctx, bson.M{"_id": child.ID}, bson.M{"$set": bson.M{
				"storage_path": childPath,
				"updated_at":   now,
			}})
			if err != nil {
				return err
			}
		}
		if err := s.rewriteDescendantPaths(ctx, child.ID, childPath); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a folder and, recursively, all of its descendant folders.
// Media items in deleted folders are detached (their folder reference is
// unset), never deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, media MediaDetacher) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	children, err := s.ListByParent(ctx, &id)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.Delete(ctx, child.ID, media); err != nil {
			return err
		}
	}

	if media != nil {
		if err := media.DetachFolder(ctx, id); err != nil {
			return err
		}
	}

	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return &domain.IOError{Message: "database error", Err: err}
	}
	return nil
}

// Breadcrumbs returns the root-first {id, name} chain for a folder. The
// upward walk is bounded at 64 hops; exceeding the bound means the parent
// links form a cycle. A parent link that no longer resolves ends the walk
// and the crumbs collected so far are returned.
func (s *Store) Breadcrumbs(ctx context.Context, id primitive.ObjectID) ([]Crumb, error) {
	folder, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	crumbs := []Crumb{{ID: folder.ID, Name: folder.Name}}

	parentID := folder.ParentID
	for hops := 0; parentID != nil; hops++ {
		if hops >= maxDepth {
			return nil, &domain.CycleDetectedError{Message: "folder hierarchy exceeds maximum depth"}
		}
		parent, err := s.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return nil, err
		}
		crumbs = append([]Crumb{{ID: parent.ID, Name: parent.Name}}, crumbs...)
		parentID = parent.ParentID
	}

	return crumbs, nil
}

// ListByParent returns the folders within a parent, sorted by name.
// Pass nil for parentID to list root folders.
func (s *Store) ListByParent(ctx context.Context, parentID *primitive.ObjectID) ([]models.Folder, error) {
	filter := bson.M{"parent_id": parentID}
	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})

	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	return folders, nil
}

// Tree returns every folder sorted by name. Clients rebuild the hierarchy
// from the parent references.
func (s *Store) Tree(ctx context.Context) ([]models.Folder, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})

	cursor, err := s.c.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, &domain.IOError{Message: "database error", Err: err}
	}
	return folders, nil
}

// CountByParent returns the number of folders within a parent.
func (s *Store) CountByParent(ctx context.Context, parentID *primitive.ObjectID) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"parent_id": parentID})
	if err != nil {
		return 0, &domain.IOError{Message: "database error", Err: err}
	}
	return n, nil
}
