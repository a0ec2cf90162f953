package models

import (
	"time"
)

type DailyViews struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// ViewAggregates is what the counter table can answer on its own.
// First/Last are nil when the code has never been scanned.
type ViewAggregates struct {
	TotalViews int64
	FirstView  *time.Time
	LastView   *time.Time
}

type StatsReport struct {
	QRCodeID    int64        `json:"qrcode_id"`
	TotalViews  int64        `json:"total_views"`
	FirstView   *string      `json:"first_view"`
	LastView    *string      `json:"last_view"`
	PerDay      []DailyViews `json:"per_day,omitempty"`
	RecentScans []ScanLog    `json:"recent_scans,omitempty"`
}
