package models

import (
	"time"
)

// ScanEvent is the request metadata captured at scan time, before any
// enrichment or persistence happens.
type ScanEvent struct {
	QRCodeID       int64
	ClientIP       string
	UserAgent      string
	Referer        string
	AcceptLanguage string
	ScannedAt      time.Time
}

// ScanLog is one append-only row of the scan log. Geo fields stay nil
// when the lookup failed or timed out.
type ScanLog struct {
	ID             int64     `json:"id"`
	QRCodeID       int64     `json:"qrcode_id"`
	ClientIP       string    `json:"client_ip"`
	UserAgent      string    `json:"user_agent"`
	Referer        string    `json:"referer,omitempty"`
	AcceptLanguage string    `json:"accept_language,omitempty"`
	GeoCountry     *string   `json:"geo_country,omitempty"`
	GeoRegion      *string   `json:"geo_region,omitempty"`
	GeoCity        *string   `json:"geo_city,omitempty"`
	ScannedAt      time.Time `json:"scanned_at"`
}

type GeoLocation struct {
	Country string `json:"country"`
	Region  string `json:"regionName"`
	City    string `json:"city"`
}
