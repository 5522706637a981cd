package models

import (
	"io"
	"time"
)

type Report struct {
	ID            int       `json:"id"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Description   string    `json:"description"`
	Severity      string    `json:"severity"`
	PollutionType string    `json:"pollution_type" db:"pollution_type"`
	UserIP        string    `json:"-" db:"user_ip"` // recorded at creation, never serialized
	Timestamp     time.Time `json:"timestamp"`
}

type ReportImage struct {
	ID        int    `json:"-"`
	ReportID  int    `json:"-" db:"report_id"`
	ImagePath string `json:"image_path" db:"image_path"`
}

// ReportView is what /get_reports returns: the report decorated with its
// attachments and whether the requesting session may delete it.
type ReportView struct {
	Report
	Images    []ReportImage `json:"images"`
	CanDelete bool          `json:"can_delete"`
}

// ImageUpload is a single file part of a report submission.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// ReportFilter narrows ListReports. Zero values mean "no constraint";
// filters combine with AND.
type ReportFilter struct {
	PollutionType string
	Severity      string
	Since         time.Time
}

type Statistics struct {
	TotalReports         int            `json:"total_reports"`
	PollutionTypes       map[string]int `json:"pollution_types"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
	DailyReports         map[string]int `json:"daily_reports"`
}
