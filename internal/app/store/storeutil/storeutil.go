// Package storeutil holds helpers shared by the Mongo-backed stores.
package storeutil

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/keepsake/internal/domain"
)

// DecodeCursor parses an opaque pagination cursor into an ObjectID.
// An empty cursor is valid and returns (NilObjectID, nil).
func DecodeCursor(cursor string) (primitive.ObjectID, error) {
	if cursor == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(cursor)
	if err != nil {
		return primitive.NilObjectID, &domain.ValidationError{Message: "invalid cursor"}
	}
	return id, nil
}

// WrapNotFound converts mongo.ErrNoDocuments into a domain NotFoundError
// with the given message; other errors wrap as IOError.
func WrapNotFound(err error, message string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.NotFoundError{Message: message}
	}
	return &domain.IOError{Message: "database error", Err: err}
}
