package domain_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

func mustGrade(t *testing.T, d domain.Discipline, label string) domain.Grade {
	t.Helper()
	g, err := domain.ParseGrade(d, label)
	require.NoError(t, err)
	return g
}

func TestGradesFor(t *testing.T) {
	t.Run("V-scale has 18 labels V0..V17", func(t *testing.T) {
		grades := domain.GradesFor(domain.DisciplineBoulder)
		require.Len(t, grades, 18)
		assert.Equal(t, "V0", grades[0].Label())
		assert.Equal(t, "V17", grades[17].Label())
	})

	t.Run("YDS has 5.6-5.9 plus 5.10a-5.15d", func(t *testing.T) {
		grades := domain.GradesFor(domain.DisciplineLead)
		require.Len(t, grades, 4+6*4)
		assert.Equal(t, "5.6", grades[0].Label())
		assert.Equal(t, "5.9", grades[3].Label())
		assert.Equal(t, "5.10a", grades[4].Label())
		assert.Equal(t, "5.15d", grades[len(grades)-1].Label())
	})

	t.Run("Lead and top-rope share the YDS vocabulary", func(t *testing.T) {
		assert.Equal(t, domain.GradesFor(domain.DisciplineLead), domain.GradesFor(domain.DisciplineTopRope))
	})

	t.Run("Returned slice is a copy", func(t *testing.T) {
		grades := domain.GradesFor(domain.DisciplineBoulder)
		grades[0] = nil
		assert.NotNil(t, domain.GradesFor(domain.DisciplineBoulder)[0])
	})

	t.Run("Unknown discipline has no vocabulary", func(t *testing.T) {
		assert.Nil(t, domain.GradesFor(domain.Discipline("ICE")))
	})
}

func TestRankOf(t *testing.T) {
	tests := []struct {
		discipline domain.Discipline
		label      string
		want       float64
	}{
		{domain.DisciplineBoulder, "V0", 0},
		{domain.DisciplineBoulder, "V5", 5},
		{domain.DisciplineBoulder, "V17", 17},
		{domain.DisciplineLead, "5.6", 6},
		{domain.DisciplineLead, "5.9", 9},
		{domain.DisciplineLead, "5.10a", 10.00},
		{domain.DisciplineLead, "5.10b", 10.25},
		{domain.DisciplineLead, "5.10c", 10.50},
		{domain.DisciplineLead, "5.10d", 10.75},
		{domain.DisciplineTopRope, "5.12c", 12.50},
		{domain.DisciplineTopRope, "5.15d", 15.75},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.discipline, tt.label), func(t *testing.T) {
			rank, err := domain.RankOf(tt.discipline, mustGrade(t, tt.discipline, tt.label))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rank)
		})
	}
}

func TestRankOf_StrictlyIncreasing(t *testing.T) {
	for _, d := range domain.Disciplines {
		t.Run(string(d), func(t *testing.T) {
			grades := domain.GradesFor(d)
			prev := -1.0
			for _, g := range grades {
				r, err := domain.RankOf(d, g)
				require.NoError(t, err)
				assert.Greater(t, r, prev, "rank of %s must exceed its predecessor", g.Label())
				prev = r
			}
		})
	}
}

func TestRankOf_CrossVocabularyFails(t *testing.T) {
	yds := mustGrade(t, domain.DisciplineLead, "5.10a")
	v := mustGrade(t, domain.DisciplineBoulder, "V5")

	_, err := domain.RankOf(domain.DisciplineBoulder, yds)
	assert.ErrorIs(t, err, domain.ErrInvalidGrade)

	var gradeErr *domain.InvalidGradeError
	require.ErrorAs(t, err, &gradeErr)
	assert.Equal(t, domain.DisciplineBoulder, gradeErr.Discipline)
	assert.Equal(t, "5.10a", gradeErr.Grade)

	_, err = domain.RankOf(domain.DisciplineTopRope, v)
	assert.ErrorIs(t, err, domain.ErrInvalidGrade)

	_, err = domain.RankOf(domain.DisciplineLead, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidGrade)

	_, err = domain.RankOf(domain.DisciplineLead, domain.YDSGrade{})
	assert.ErrorIs(t, err, domain.ErrInvalidGrade, "zero YDSGrade is not in the vocabulary")
}

func TestIsValidPair(t *testing.T) {
	assert.False(t, domain.IsValidPair(domain.DisciplineBoulder, "5.10a"))
	assert.False(t, domain.IsValidPair(domain.DisciplineLead, "V5"))
	assert.True(t, domain.IsValidPair(domain.DisciplineBoulder, "V5"))
	assert.True(t, domain.IsValidPair(domain.DisciplineTopRope, "5.11d"))

	assert.False(t, domain.IsValidPair(domain.DisciplineBoulder, "V18"))
	assert.False(t, domain.IsValidPair(domain.DisciplineLead, "5.10"), "5.10 and harder need a letter")
	assert.False(t, domain.IsValidPair(domain.DisciplineLead, "5.9a"))
	assert.False(t, domain.IsValidPair(domain.DisciplineLead, "5.10A"))
	assert.False(t, domain.IsValidPair(domain.DisciplineLead, ""))
	assert.False(t, domain.IsValidPair(domain.Discipline("ICE"), "V5"))
}

func TestCompare(t *testing.T) {
	d := domain.DisciplineLead
	grades := domain.GradesFor(d)

	t.Run("Consistent with RankOf, antisymmetric and reflexive", func(t *testing.T) {
		for _, a := range grades {
			for _, b := range grades {
				ab, err := domain.Compare(d, a, b)
				require.NoError(t, err)
				ba, err := domain.Compare(d, b, a)
				require.NoError(t, err)

				assert.Equal(t, -ab, ba)

				ra, _ := domain.RankOf(d, a)
				rb, _ := domain.RankOf(d, b)
				switch {
				case ra < rb:
					assert.Equal(t, -1, ab)
				case ra > rb:
					assert.Equal(t, 1, ab)
				default:
					assert.Equal(t, 0, ab)
				}
			}
		}
	})

	t.Run("Transitive", func(t *testing.T) {
		for i := 0; i+2 < len(grades); i++ {
			ab, _ := domain.Compare(d, grades[i], grades[i+1])
			bc, _ := domain.Compare(d, grades[i+1], grades[i+2])
			ac, _ := domain.Compare(d, grades[i], grades[i+2])
			if ab < 0 && bc < 0 {
				assert.Equal(t, -1, ac)
			}
		}
	})

	t.Run("Not lexicographic: 5.9 is easier than 5.10a", func(t *testing.T) {
		c, err := domain.Compare(d, mustGrade(t, d, "5.9"), mustGrade(t, d, "5.10a"))
		require.NoError(t, err)
		assert.Equal(t, -1, c)

		c, err = domain.Compare(domain.DisciplineBoulder,
			mustGrade(t, domain.DisciplineBoulder, "V10"),
			mustGrade(t, domain.DisciplineBoulder, "V9"))
		require.NoError(t, err)
		assert.Equal(t, 1, c)
	})

	t.Run("Fail: invalid operand", func(t *testing.T) {
		_, err := domain.Compare(domain.DisciplineBoulder,
			mustGrade(t, domain.DisciplineBoulder, "V1"),
			mustGrade(t, domain.DisciplineLead, "5.10a"))
		assert.ErrorIs(t, err, domain.ErrInvalidGrade)
	})
}

func TestMaxGrade(t *testing.T) {
	b := domain.DisciplineBoulder

	t.Run("Returns the hardest grade", func(t *testing.T) {
		grades := []domain.Grade{mustGrade(t, b, "V3"), mustGrade(t, b, "V7"), mustGrade(t, b, "V5")}
		got, err := domain.MaxGrade(b, grades)
		require.NoError(t, err)
		assert.Equal(t, "V7", got.Label())
	})

	t.Run("Empty input fails", func(t *testing.T) {
		_, err := domain.MaxGrade(b, nil)
		assert.ErrorIs(t, err, domain.ErrNoGrades)
	})

	t.Run("Invalid member fails", func(t *testing.T) {
		grades := []domain.Grade{mustGrade(t, b, "V3"), mustGrade(t, domain.DisciplineLead, "5.12a")}
		_, err := domain.MaxGrade(b, grades)
		assert.ErrorIs(t, err, domain.ErrInvalidGrade)
	})
}

func TestGrade_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]domain.Grade{
		mustGrade(t, domain.DisciplineBoulder, "V4"),
		mustGrade(t, domain.DisciplineLead, "5.11c"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `["V4","5.11c"]`, string(data))
}

func TestParseDiscipline(t *testing.T) {
	d, err := domain.ParseDiscipline("BOULDER")
	require.NoError(t, err)
	assert.Equal(t, domain.DisciplineBoulder, d)

	for _, raw := range []string{"SPORT", "boulder", "Lead", " TOPROPE", ""} {
		_, err = domain.ParseDiscipline(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidDiscipline, raw)
	}

	assert.Equal(t, domain.ScaleV, domain.DisciplineBoulder.Scale())
	assert.Equal(t, domain.ScaleYDS, domain.DisciplineTopRope.Scale())
}
