package db

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/sqlscan"
	"github.com/nhatem/pollumap/internal/models"
	"github.com/nhatem/pollumap/internal/utils"
)

// attachImages saves the uploaded blobs and records one report_images row per
// retained file. Blobs with an empty name are skipped and a file name
// repeated within the batch is attached once. Saving is idempotent: a file
// already stored under the same sanitized name is reused without overwriting.
func (sdb *SharedDB) attachImages(ctx context.Context, reportID int, images []models.ImageUpload) ([]models.ReportImage, error) {
	attached := []models.ReportImage{}
	seen := map[string]bool{}
	for _, img := range images {
		if img.Filename == "" {
			continue
		}
		name := utils.SanitizeFilename(img.Filename)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if err := sdb.files.Save(name, img.Content); err != nil {
			return nil, fmt.Errorf("saving image %s: %w", name, err)
		}

		sql, args, _ := qb.
			Insert("report_images").
			Columns("report_id", "image_path").
			Values(reportID, name).
			ToSql()
		res, err := sdb.db.ExecContext(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("recording image %s: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		attached = append(attached, models.ReportImage{
			ID:        int(id),
			ReportID:  reportID,
			ImagePath: name,
		})
	}
	return attached, nil
}

// ImagesFor lists a report's attachments in insertion order.
func (sdb *SharedDB) ImagesFor(ctx context.Context, reportID int) ([]models.ReportImage, error) {
	sql, args, _ := qb.
		Select("id", "report_id", "image_path").
		From("report_images").
		Where(sq.Eq{"report_id": reportID}).
		OrderBy("id ASC").
		ToSql()

	images := []models.ReportImage{}
	err := sqlscan.Select(ctx, sdb.db, &images, sql, args...)
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (sdb *SharedDB) deleteImageRows(ctx context.Context, reportID int) error {
	sql, args, _ := qb.
		Delete("report_images").
		Where(sq.Eq{"report_id": reportID}).
		ToSql()
	_, err := sdb.db.ExecContext(ctx, sql, args...)
	return err
}
