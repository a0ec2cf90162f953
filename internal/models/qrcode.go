package models

import (
	"time"
)

// QRCode is a stored code record. Tracked codes encode the scan URL of
// the service and their scans are recorded; untracked codes encode the
// destination directly and scanning them leaves no trace here.
type QRCode struct {
	ID          int64     `json:"id"`
	Destination string    `json:"destination"`
	OwnerID     int64     `json:"owner_id"`
	Tracked     bool      `json:"tracked"`
	Color       string    `json:"color"`
	Logo        *string   `json:"logo,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Derived from ID, not persisted.
	ScanURL  string `json:"scan_url,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type CreateQRCodeInput struct {
	Destination string  `json:"destination" binding:"required"`
	Tracked     *bool   `json:"tracked,omitempty"`
	Color       string  `json:"color,omitempty"`
	Logo        *string `json:"logo,omitempty"`
}

// UpdateQRCodeInput carries the changed fields of a modify call.
// Nil means "leave as is".
type UpdateQRCodeInput struct {
	Destination *string `json:"destination,omitempty"`
	Tracked     *bool   `json:"tracked,omitempty"`
	Color       *string `json:"color,omitempty"`
	Logo        *string `json:"logo,omitempty"`
}

func (in *UpdateQRCodeInput) Empty() bool {
	return in.Destination == nil && in.Tracked == nil && in.Color == nil && in.Logo == nil
}
