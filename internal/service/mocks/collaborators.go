package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/SergeiKhy/qr-tracker/internal/models"
)

// MockRenderer implements qr.Renderer and counts interactions, so tests
// can assert exactly when a regeneration happened and what payload the
// image would encode.
type MockRenderer struct {
	mu       sync.Mutex
	payloads map[int64]string
	removed  []int64

	RenderCalls int
	FailRender  error
}

func NewMockRenderer() *MockRenderer {
	return &MockRenderer{
		payloads: make(map[int64]string),
	}
}

func (m *MockRenderer) RenderToFile(id int64, payload, colorName string, logo *string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RenderCalls++
	if m.FailRender != nil {
		return "", m.FailRender
	}

	m.payloads[id] = payload
	return m.ImagePath(id), nil
}

func (m *MockRenderer) Remove(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removed = append(m.removed, id)
	delete(m.payloads, id)
	return nil
}

func (m *MockRenderer) ImagePath(id int64) string {
	return fmt.Sprintf("/tmp/qrcodes/qrcode_%d.png", id)
}

func (m *MockRenderer) PublicURL(id int64) string {
	return fmt.Sprintf("http://localhost:8080/static/qrcodes/qrcode_%d.png", id)
}

// Payload returns the last payload rendered for id, or "".
func (m *MockRenderer) Payload(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payloads[id]
}

func (m *MockRenderer) Removed() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.removed...)
}

// MockGeoLookup implements geo.Lookup with a fixed answer. A nil
// Location mimics a timed-out or failed lookup.
type MockGeoLookup struct {
	Location *models.GeoLocation
}

func (m *MockGeoLookup) Resolve(ctx context.Context, ip string) *models.GeoLocation {
	return m.Location
}
