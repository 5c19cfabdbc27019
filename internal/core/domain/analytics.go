package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Metric is a statistic that may be absent. An absent Metric means the
// population behind it was empty; it is never reported as zero.
type Metric struct {
	value float64
	ok    bool
}

// NoData is the absent Metric.
var NoData = Metric{}

func MetricOf(v float64) Metric {
	return Metric{value: v, ok: true}
}

func (m Metric) Value() (float64, bool) {
	return m.value, m.ok
}

func (m Metric) HasData() bool {
	return m.ok
}

// Or returns the value, or fallback when there is no data.
func (m Metric) Or(fallback float64) float64 {
	if !m.ok {
		return fallback
	}
	return m.value
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.ok {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = NoData
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = MetricOf(v)
	return nil
}

type Bucketing string

const (
	BucketWeek  Bucketing = "week"
	BucketMonth Bucketing = "month"
)

func (b Bucketing) IsValid() bool {
	return b == BucketWeek || b == BucketMonth
}

type Overview struct {
	TotalSessions     int    `json:"total_sessions"`
	AverageDifficulty Metric `json:"average_difficulty"`
	SentPercentage    Metric `json:"sent_percentage"`
}

type DisciplineSummary struct {
	SessionCount      int     `json:"session_count"`
	AverageDifficulty float64 `json:"average_difficulty"`
	SentPercentage    float64 `json:"sent_percentage"`
}

type ProgressBucket struct {
	Key               string  `json:"key"`
	SessionCount      int     `json:"session_count"`
	AverageDifficulty float64 `json:"average_difficulty"`
	SentRate          float64 `json:"sent_rate"`
}

// ProgressSeries is a sparse, chronologically ordered series. Pooled is always
// true: the bucket means mix V-scale and YDS ranks into one trend line.
type ProgressSeries struct {
	Bucketing Bucketing        `json:"bucketing"`
	Pooled    bool             `json:"pooled_across_scales"`
	Buckets   []ProgressBucket `json:"buckets"`
}

// Snapshot is a derived, point-in-time view over one user's sessions. It holds
// no reference to the records it was computed from.
type Snapshot struct {
	Overview      Overview                         `json:"overview"`
	ByDiscipline  map[Discipline]DisciplineSummary `json:"by_discipline"`
	HighestGrades map[Discipline]Grade             `json:"highest_grades"`
	AverageGrades map[Discipline]float64           `json:"average_grades"`
	Weekly        ProgressSeries                   `json:"weekly"`
	Monthly       ProgressSeries                   `json:"monthly"`
	GeneratedAt   time.Time                        `json:"generated_at"`
}

type snapshotJSON struct {
	Overview      Overview                         `json:"overview"`
	ByDiscipline  map[Discipline]DisciplineSummary `json:"by_discipline"`
	HighestGrades map[Discipline]string            `json:"highest_grades"`
	AverageGrades map[Discipline]float64           `json:"average_grades"`
	Weekly        ProgressSeries                   `json:"weekly"`
	Monthly       ProgressSeries                   `json:"monthly"`
	GeneratedAt   time.Time                        `json:"generated_at"`
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	highest := make(map[Discipline]Grade, len(raw.HighestGrades))
	for d, label := range raw.HighestGrades {
		g, err := ParseGrade(d, label)
		if err != nil {
			return err
		}
		highest[d] = g
	}

	*s = Snapshot{
		Overview:      raw.Overview,
		ByDiscipline:  raw.ByDiscipline,
		HighestGrades: highest,
		AverageGrades: raw.AverageGrades,
		Weekly:        raw.Weekly,
		Monthly:       raw.Monthly,
		GeneratedAt:   raw.GeneratedAt,
	}
	return nil
}
