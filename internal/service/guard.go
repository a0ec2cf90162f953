package service

import (
	"github.com/SergeiKhy/qr-tracker/internal/models"
)

// AssertOwner is the single ownership check used by mutations and
// statistics access. Pure function, no I/O.
func AssertOwner(qr *models.QRCode, requesterID int64) error {
	if qr.OwnerID != requesterID {
		return ErrUnauthorized
	}
	return nil
}
