// Package analytics aggregates climbing sessions into summary statistics.
//
// Functions are pure and safe for concurrent use. Input is assumed to have
// passed admission validation; a record whose grade does not belong to its
// discipline aborts the computation with *domain.InvalidGradeError.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

var ErrNilSession = errors.New("analytics: nil session in input")

type accumulator struct {
	count   int
	sent    int
	rankSum float64
}

func (a *accumulator) add(rank float64, sent bool) {
	a.count++
	a.rankSum += rank
	if sent {
		a.sent++
	}
}

func (a accumulator) mean() float64 {
	return a.rankSum / float64(a.count)
}

func (a accumulator) sentRatio() float64 {
	return float64(a.sent) / float64(a.count)
}

func rankOf(s *domain.Session) (float64, error) {
	if s == nil {
		return 0, ErrNilSession
	}
	r, err := s.Rank()
	if err != nil {
		return 0, fmt.Errorf("analytics: session %q: %w", s.ID, err)
	}
	return r, nil
}

// ComputeOverview summarises all sessions. With no sessions the averages are
// domain.NoData, not zero.
func ComputeOverview(records []*domain.Session) (domain.Overview, error) {
	var acc accumulator
	for _, s := range records {
		r, err := rankOf(s)
		if err != nil {
			return domain.Overview{}, err
		}
		acc.add(r, s.Sent)
	}

	if acc.count == 0 {
		return domain.Overview{
			TotalSessions:     0,
			AverageDifficulty: domain.NoData,
			SentPercentage:    domain.NoData,
		}, nil
	}

	return domain.Overview{
		TotalSessions:     acc.count,
		AverageDifficulty: domain.MetricOf(acc.mean()),
		SentPercentage:    domain.MetricOf(acc.sentRatio()),
	}, nil
}

// ComputeByDiscipline groups by discipline. Disciplines without sessions are
// absent from the result.
func ComputeByDiscipline(records []*domain.Session) (map[domain.Discipline]domain.DisciplineSummary, error) {
	groups := make(map[domain.Discipline]*accumulator)
	for _, s := range records {
		r, err := rankOf(s)
		if err != nil {
			return nil, err
		}
		acc, ok := groups[s.Discipline]
		if !ok {
			acc = &accumulator{}
			groups[s.Discipline] = acc
		}
		acc.add(r, s.Sent)
	}

	out := make(map[domain.Discipline]domain.DisciplineSummary, len(groups))
	for d, acc := range groups {
		out[d] = domain.DisciplineSummary{
			SessionCount:      acc.count,
			AverageDifficulty: acc.mean(),
			SentPercentage:    acc.sentRatio(),
		}
	}
	return out, nil
}

// ComputeAverageGrades returns the mean rank per discipline present in the input.
func ComputeAverageGrades(records []*domain.Session) (map[domain.Discipline]float64, error) {
	byDiscipline, err := ComputeByDiscipline(records)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Discipline]float64, len(byDiscipline))
	for d, summary := range byDiscipline {
		out[d] = summary.AverageDifficulty
	}
	return out, nil
}

// ComputeHighestGrades returns the hardest grade per discipline. Ties keep the
// first occurrence in input order. Disciplines without sessions are absent.
func ComputeHighestGrades(records []*domain.Session) (map[domain.Discipline]domain.Grade, error) {
	grades := make(map[domain.Discipline][]domain.Grade)
	for _, s := range records {
		if _, err := rankOf(s); err != nil {
			return nil, err
		}
		grades[s.Discipline] = append(grades[s.Discipline], s.Grade)
	}

	out := make(map[domain.Discipline]domain.Grade, len(grades))
	for d, gs := range grades {
		best, err := domain.MaxGrade(d, gs)
		if err != nil {
			return nil, err
		}
		out[d] = best
	}
	return out, nil
}

// HighestGrade is ComputeHighestGrades for a single discipline. ok is false
// when the input has no session of that discipline.
func HighestGrade(records []*domain.Session, d domain.Discipline) (domain.Grade, bool, error) {
	all, err := ComputeHighestGrades(records)
	if err != nil {
		return nil, false, err
	}
	g, ok := all[d]
	return g, ok, nil
}

// ComputeProgressSeries buckets sessions by ISO week ("YYYY-Www") or calendar
// month ("YYYY-MM"). Only occupied buckets are emitted, in ascending key order.
//
// The bucket mean pools V-scale and YDS ranks into one number. The two scales
// are not comparable, so the value is only meaningful as a single trend line;
// the per-discipline views are the accurate ones.
func ComputeProgressSeries(records []*domain.Session, bucketing domain.Bucketing) (domain.ProgressSeries, error) {
	keyOf, err := bucketKeyFunc(bucketing)
	if err != nil {
		return domain.ProgressSeries{}, err
	}

	groups := make(map[string]*accumulator)
	for _, s := range records {
		r, err := rankOf(s)
		if err != nil {
			return domain.ProgressSeries{}, err
		}
		if s.Date.IsZero() {
			return domain.ProgressSeries{}, fmt.Errorf("analytics: session %q: %w", s.ID, &domain.InvalidDateError{})
		}
		key := keyOf(s.Date)
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
		}
		acc.add(r, s.Sent)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]domain.ProgressBucket, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		buckets = append(buckets, domain.ProgressBucket{
			Key:               k,
			SessionCount:      acc.count,
			AverageDifficulty: acc.mean(),
			SentRate:          acc.sentRatio(),
		})
	}

	return domain.ProgressSeries{
		Bucketing: bucketing,
		Pooled:    true,
		Buckets:   buckets,
	}, nil
}

// ComputeSnapshot runs every aggregate over the same input. generatedAt is
// supplied by the caller so the result stays a pure function of its arguments.
func ComputeSnapshot(records []*domain.Session, generatedAt time.Time) (*domain.Snapshot, error) {
	overview, err := ComputeOverview(records)
	if err != nil {
		return nil, err
	}
	byDiscipline, err := ComputeByDiscipline(records)
	if err != nil {
		return nil, err
	}
	highest, err := ComputeHighestGrades(records)
	if err != nil {
		return nil, err
	}
	averages, err := ComputeAverageGrades(records)
	if err != nil {
		return nil, err
	}
	weekly, err := ComputeProgressSeries(records, domain.BucketWeek)
	if err != nil {
		return nil, err
	}
	monthly, err := ComputeProgressSeries(records, domain.BucketMonth)
	if err != nil {
		return nil, err
	}

	return &domain.Snapshot{
		Overview:      overview,
		ByDiscipline:  byDiscipline,
		HighestGrades: highest,
		AverageGrades: averages,
		Weekly:        weekly,
		Monthly:       monthly,
		GeneratedAt:   generatedAt.UTC(),
	}, nil
}
