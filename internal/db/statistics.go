package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/sqlscan"
	"github.com/nhatem/pollumap/internal/models"
)

type groupCount struct {
	Label string
	Count int
}

// Statistics summarizes the whole store: total count, per-type and
// per-severity distributions over all reports, and a per-day series limited
// to the trailing aggregation window. Days without reports are omitted.
func (sdb *SharedDB) Statistics(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{
		PollutionTypes:       map[string]int{},
		SeverityDistribution: map[string]int{},
		DailyReports:         map[string]int{},
	}

	sql, args, _ := qb.Select("COUNT(*)").From("reports").ToSql()
	row := sdb.db.QueryRowContext(ctx, sql, args...)
	if err := row.Scan(&stats.TotalReports); err != nil {
		return nil, err
	}

	var err error
	stats.PollutionTypes, err = sdb.countBy(ctx, "pollution_type", sq.And{})
	if err != nil {
		return nil, err
	}
	stats.SeverityDistribution, err = sdb.countBy(ctx, "severity", sq.And{})
	if err != nil {
		return nil, err
	}

	windowStart := time.Now().UTC().AddDate(0, 0, -AggregationWindowDays)
	stats.DailyReports, err = sdb.countBy(ctx,
		"strftime('%Y-%m-%d', timestamp)",
		sq.And{sq.GtOrEq{"timestamp": windowStart}})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (sdb *SharedDB) countBy(ctx context.Context, expr string, cond sq.And) (map[string]int, error) {
	q := qb.
		Select(expr+" AS label", "COUNT(*) AS count").
		From("reports").
		GroupBy(expr)
	if len(cond) > 0 {
		q = q.Where(cond)
	}
	sql, args, _ := q.ToSql()

	var groups []groupCount
	if err := sqlscan.Select(ctx, sdb.db, &groups, sql, args...); err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, g := range groups {
		counts[g.Label] = g.Count
	}
	return counts, nil
}
