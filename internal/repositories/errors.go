package repositories

import (
	"errors"
	"fmt"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// translate maps driver-level "no rows" errors onto the domain NotFound error
// for resource and wraps anything else with op.
func translate(err error, op, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NotFound(resource)
	}
	return fmt.Errorf("%s: %w", op, err)
}
