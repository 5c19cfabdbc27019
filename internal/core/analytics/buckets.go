package analytics

import (
	"errors"
	"fmt"

	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

var ErrInvalidBucketing = errors.New("analytics: bucketing must be week or month")

// WeekKey formats the ISO 8601 week of d as "YYYY-Www". The year is the ISO
// week-numbering year, so 2024-12-30 belongs to "2025-W01".
func WeekKey(d domain.Date) string {
	year, week := d.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey formats the calendar month of d as "YYYY-MM".
func MonthKey(d domain.Date) string {
	return d.Time().Format("2006-01")
}

func bucketKeyFunc(b domain.Bucketing) (func(domain.Date) string, error) {
	switch b {
	case domain.BucketWeek:
		return WeekKey, nil
	case domain.BucketMonth:
		return MonthKey, nil
	}
	return nil, ErrInvalidBucketing
}
