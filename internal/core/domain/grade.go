package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidGrade = errors.New("invalid grade for discipline")
	ErrNoGrades     = errors.New("no grades to compare")
)

// InvalidGradeError reports a grade label that is not part of the vocabulary
// implied by the discipline. It matches ErrInvalidGrade through errors.Is.
type InvalidGradeError struct {
	Discipline Discipline
	Grade      string
}

func (e *InvalidGradeError) Error() string {
	return fmt.Sprintf("invalid grade %q for discipline %q", e.Grade, e.Discipline)
}

func (e *InvalidGradeError) Is(target error) bool {
	return target == ErrInvalidGrade
}

type Scale string

const (
	ScaleV   Scale = "V"
	ScaleYDS Scale = "YDS"
)

// Grade is a label from exactly one of the two vocabularies. The set of
// implementations is closed: VScaleGrade and YDSGrade.
type Grade interface {
	Label() string
	Scale() Scale
	sealed()
}

// VScaleGrade is a bouldering grade, V0 through V17.
type VScaleGrade struct {
	n int
}

func (g VScaleGrade) Label() string { return fmt.Sprintf("V%d", g.n) }
func (g VScaleGrade) Scale() Scale  { return ScaleV }
func (g VScaleGrade) String() string {
	return g.Label()
}
func (VScaleGrade) sealed() {}

func (g VScaleGrade) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Label())
}

// YDSGrade is a roped grade: 5.6 to 5.9 without a letter, 5.10a to 5.15d with one.
type YDSGrade struct {
	major  int
	letter string
}

func (g YDSGrade) Label() string { return fmt.Sprintf("5.%d%s", g.major, g.letter) }
func (g YDSGrade) Scale() Scale  { return ScaleYDS }
func (g YDSGrade) String() string {
	return g.Label()
}
func (YDSGrade) sealed() {}

func (g YDSGrade) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Label())
}

const (
	maxVGrade      = 17
	minYDSMajor    = 6
	firstLetterYDS = 10
	maxYDSMajor    = 15
)

var ydsLetters = []string{"a", "b", "c", "d"}

type scaleEntry struct {
	grade Grade
	rank  float64
}

type vocabulary struct {
	ordered []scaleEntry
	byLabel map[string]scaleEntry
}

var vocabularies = map[Scale]*vocabulary{
	ScaleV:   buildVScale(),
	ScaleYDS: buildYDSScale(),
}

func newVocabulary(entries []scaleEntry) *vocabulary {
	v := &vocabulary{
		ordered: entries,
		byLabel: make(map[string]scaleEntry, len(entries)),
	}
	for _, e := range entries {
		v.byLabel[e.grade.Label()] = e
	}
	return v
}

func buildVScale() *vocabulary {
	entries := make([]scaleEntry, 0, maxVGrade+1)
	for n := 0; n <= maxVGrade; n++ {
		entries = append(entries, scaleEntry{grade: VScaleGrade{n: n}, rank: float64(n)})
	}
	return newVocabulary(entries)
}

// The letter suffix splits an integer YDS grade into quarters. This is an
// approximation that makes averaging possible, not an official equivalence.
func buildYDSScale() *vocabulary {
	var entries []scaleEntry
	for major := minYDSMajor; major < firstLetterYDS; major++ {
		entries = append(entries, scaleEntry{grade: YDSGrade{major: major}, rank: float64(major)})
	}
	for major := firstLetterYDS; major <= maxYDSMajor; major++ {
		for i, letter := range ydsLetters {
			entries = append(entries, scaleEntry{
				grade: YDSGrade{major: major, letter: letter},
				rank:  float64(major) + float64(i)*0.25,
			})
		}
	}
	return newVocabulary(entries)
}

func vocabularyFor(d Discipline) (*vocabulary, bool) {
	v, ok := vocabularies[d.Scale()]
	return v, ok
}

// ParseGrade converts a raw label into a Grade valid for the discipline.
// Labels are matched exactly.
func ParseGrade(d Discipline, label string) (Grade, error) {
	v, ok := vocabularyFor(d)
	if !ok {
		return nil, &InvalidGradeError{Discipline: d, Grade: label}
	}
	e, ok := v.byLabel[label]
	if !ok {
		return nil, &InvalidGradeError{Discipline: d, Grade: label}
	}
	return e.grade, nil
}

// IsValidPair reports whether label belongs to the vocabulary of d. It never fails.
func IsValidPair(d Discipline, label string) bool {
	_, err := ParseGrade(d, label)
	return err == nil
}

// GradesFor returns the canonical ordered vocabulary of d, easiest first.
func GradesFor(d Discipline) []Grade {
	v, ok := vocabularyFor(d)
	if !ok {
		return nil
	}
	out := make([]Grade, len(v.ordered))
	for i, e := range v.ordered {
		out[i] = e.grade
	}
	return out
}

// RankOf returns the difficulty rank of g within the vocabulary of d.
func RankOf(d Discipline, g Grade) (float64, error) {
	if g == nil {
		return 0, &InvalidGradeError{Discipline: d}
	}
	v, ok := vocabularyFor(d)
	if !ok || g.Scale() != d.Scale() {
		return 0, &InvalidGradeError{Discipline: d, Grade: g.Label()}
	}
	e, ok := v.byLabel[g.Label()]
	if !ok {
		return 0, &InvalidGradeError{Discipline: d, Grade: g.Label()}
	}
	return e.rank, nil
}

// Compare returns -1, 0 or 1 as the rank of a is below, equal to or above b.
func Compare(d Discipline, a, b Grade) (int, error) {
	ra, err := RankOf(d, a)
	if err != nil {
		return 0, err
	}
	rb, err := RankOf(d, b)
	if err != nil {
		return 0, err
	}
	switch {
	case ra < rb:
		return -1, nil
	case ra > rb:
		return 1, nil
	}
	return 0, nil
}

// MaxGrade returns the hardest grade. On ties the first occurrence wins.
func MaxGrade(d Discipline, grades []Grade) (Grade, error) {
	if len(grades) == 0 {
		return nil, ErrNoGrades
	}
	best := grades[0]
	bestRank, err := RankOf(d, best)
	if err != nil {
		return nil, err
	}
	for _, g := range grades[1:] {
		r, err := RankOf(d, g)
		if err != nil {
			return nil, err
		}
		if r > bestRank {
			best, bestRank = g, r
		}
	}
	return best, nil
}
