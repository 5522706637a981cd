package db

import (
	"context"
	dbsql "database/sql"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/sqlscan"
	"github.com/nhatem/pollumap/internal/models"
)

var reportColumns = []string{
	"id", "latitude", "longitude", "description",
	"severity", "pollution_type", "user_ip", "timestamp",
}

// CreateReport validates and persists a new report, then attaches its images.
// The report row and the attachments are committed independently: if the
// attach step fails, the already-committed row is taken back out so a broken
// submission doesn't leave a half-created report behind. Files written before
// the failure stay on disk (best effort, the store is name-addressed).
func (sdb *SharedDB) CreateReport(ctx context.Context, report *models.Report, images []models.ImageUpload) ([]models.ReportImage, error) {
	if err := validateReport(report); err != nil {
		return nil, err
	}
	if report.Severity == "" {
		report.Severity = DefaultSeverity
	}
	if report.PollutionType == "" {
		report.PollutionType = DefaultPollutionType
	}
	report.Timestamp = time.Now().UTC()

	sql, args, _ := qb.
		Insert("reports").
		Columns("latitude", "longitude", "description", "severity", "pollution_type", "user_ip", "timestamp").
		Values(report.Latitude, report.Longitude, report.Description,
			report.Severity, report.PollutionType, report.UserIP, report.Timestamp).
		ToSql()

	res, err := sdb.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	report.ID = int(id)

	attached, err := sdb.attachImages(ctx, report.ID, images)
	if err != nil {
		// Take the database back out: image rows inserted before the failure,
		// then the report row itself. Files are left alone.
		sdb.deleteImageRows(ctx, report.ID)
		sdb.DeleteReport(ctx, report.ID)
		return nil, err
	}
	return attached, nil
}

func validateReport(report *models.Report) error {
	if report.Description == "" {
		return ErrMissingField
	}
	if len(report.Description) > LimitMaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if !isFinite(report.Latitude) || !isFinite(report.Longitude) {
		return ErrBadCoordinate
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (sdb *SharedDB) GetReport(ctx context.Context, id int) (*models.Report, error) {
	sql, args, _ := qb.
		Select(reportColumns...).
		From("reports").
		Where(sq.Eq{"id": id}).
		ToSql()

	var report models.Report
	err := sqlscan.Get(ctx, sdb.db, &report, sql, args...)
	if sqlscan.NotFound(err) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReports returns reports matching the filter in insertion order
// (ascending id). Zero-valued filter fields impose no constraint.
func (sdb *SharedDB) ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	q := qb.
		Select(reportColumns...).
		From("reports").
		OrderBy("id ASC")
	if filter.PollutionType != "" {
		q = q.Where(sq.Eq{"pollution_type": filter.PollutionType})
	}
	if filter.Severity != "" {
		q = q.Where(sq.Eq{"severity": filter.Severity})
	}
	if !filter.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"timestamp": filter.Since.UTC()})
	}
	sql, args, _ := q.ToSql()

	reports := []models.Report{}
	err := sqlscan.Select(ctx, sdb.db, &reports, sql, args...)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// DeleteReport removes the report row only. Images must be detached first;
// the foreign key keeps us honest.
func (sdb *SharedDB) DeleteReport(ctx context.Context, id int) error {
	sql, args, _ := qb.
		Delete("reports").
		Where(sq.Eq{"id": id}).
		ToSql()

	res, err := sdb.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReportNotFound
	}
	return nil
}

// RemoveReport deletes a report and everything it owns: image files first,
// then image rows and the report row in one transaction. Removing a file that
// is already gone is tolerated, but any other unlink error aborts the whole
// deletion before a row is touched, so no row is left pointing at a file that
// still exists. A concurrent delete of the same id loses the race cleanly
// with ErrReportNotFound.
func (sdb *SharedDB) RemoveReport(ctx context.Context, id int) error {
	images, err := sdb.ImagesFor(ctx, id)
	if err != nil {
		return err
	}
	for _, img := range images {
		if err := sdb.files.Remove(img.ImagePath); err != nil {
			return fmt.Errorf("removing image %s: %w", img.ImagePath, err)
		}
	}

	return execTx(ctx, sdb.db, func(tx *dbsql.Tx) error {
		q, args, _ := qb.
			Delete("report_images").
			Where(sq.Eq{"report_id": id}).
			ToSql()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}

		q, args, _ = qb.
			Delete("reports").
			Where(sq.Eq{"id": id}).
			ToSql()
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrReportNotFound
		}
		return nil
	})
}
