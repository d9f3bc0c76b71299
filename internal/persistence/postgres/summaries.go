package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/observability"
)

// UpsertDailySummary stores m unless the row for the same subject and day carries a higher
// version. It reports whether m was written.
func (r *Repository) UpsertDailySummary(ctx context.Context, m aggregate.Materialized) (bool, error) {
	const stmt = `INSERT INTO daily_summaries (subject_id, day, time_zone, total_sleep_ms, sleep_count, feeding_count,
            bottle_total_oz, diaper_count, wet_diaper_count, dirty_diaper_count, version, computed_at)
        VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (subject_id, day) DO UPDATE SET
            time_zone = EXCLUDED.time_zone,
            total_sleep_ms = EXCLUDED.total_sleep_ms,
            sleep_count = EXCLUDED.sleep_count,
            feeding_count = EXCLUDED.feeding_count,
            bottle_total_oz = EXCLUDED.bottle_total_oz,
            diaper_count = EXCLUDED.diaper_count,
            wet_diaper_count = EXCLUDED.wet_diaper_count,
            dirty_diaper_count = EXCLUDED.dirty_diaper_count,
            version = EXCLUDED.version,
            computed_at = EXCLUDED.computed_at
        WHERE daily_summaries.version <= EXCLUDED.version`

	s := m.Summary
	tag, err := r.pool.Exec(ctx, stmt,
		m.SubjectID,
		s.Date.Format(aggregate.DateLayout),
		m.TimeZone,
		s.TotalSleepMs,
		s.SleepCount,
		s.FeedingCount,
		s.BottleTotalOz,
		s.DiaperCount,
		s.WetDiaperCount,
		s.DirtyDiaperCount,
		m.Version,
		m.ComputedAt,
	)
	if err != nil {
		return false, fmt.Errorf("postgres.Repository.UpsertDailySummary: %w", err)
	}
	written := tag.RowsAffected() > 0
	if written {
		observability.SummaryMaterialized(m.ComputedAt)
	}
	return written, nil
}

// ListDailySummaries returns the stored summaries for the calendar days from..to, oldest first.
// Each Date is midnight of the day in the zone the summary was computed for.
func (r *Repository) ListDailySummaries(ctx context.Context, subjectID string, from, to time.Time) ([]aggregate.Materialized, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT subject_id, to_char(day, 'YYYY-MM-DD'), time_zone, total_sleep_ms, sleep_count, feeding_count, bottle_total_oz,
                diaper_count, wet_diaper_count, dirty_diaper_count, version, computed_at
           FROM daily_summaries
          WHERE subject_id=$1 AND day BETWEEN $2::date AND $3::date
          ORDER BY day`,
		subjectID, from.Format(aggregate.DateLayout), to.Format(aggregate.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.Repository.ListDailySummaries: %w", err)
	}
	defer rows.Close()

	var out []aggregate.Materialized
	for rows.Next() {
		var (
			m   aggregate.Materialized
			day string
		)
		if err := rows.Scan(&m.SubjectID, &day, &m.TimeZone, &m.Summary.TotalSleepMs, &m.Summary.SleepCount,
			&m.Summary.FeedingCount, &m.Summary.BottleTotalOz, &m.Summary.DiaperCount, &m.Summary.WetDiaperCount,
			&m.Summary.DirtyDiaperCount, &m.Version, &m.ComputedAt); err != nil {
			return nil, fmt.Errorf("postgres.Repository.ListDailySummaries: %w", err)
		}
		loc, err := time.LoadLocation(m.TimeZone)
		if err != nil {
			loc = time.UTC
		}
		if m.Summary.Date, err = aggregate.ParseDay(day, loc); err != nil {
			return nil, fmt.Errorf("postgres.Repository.ListDailySummaries: %w", err)
		}
		m.ComputedAt = m.ComputedAt.UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.Repository.ListDailySummaries: %w", err)
	}
	return out, nil
}
