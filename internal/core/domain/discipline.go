package domain

import "errors"

var ErrInvalidDiscipline = errors.New("invalid discipline (must be BOULDER, LEAD or TOPROPE)")

type Discipline string

const (
	DisciplineBoulder Discipline = "BOULDER"
	DisciplineLead    Discipline = "LEAD"
	DisciplineTopRope Discipline = "TOPROPE"
)

// Disciplines lists every discipline in display order.
var Disciplines = []Discipline{DisciplineBoulder, DisciplineLead, DisciplineTopRope}

// ParseDiscipline accepts only the canonical names. Input is never rewritten.
func ParseDiscipline(s string) (Discipline, error) {
	d := Discipline(s)
	if !d.IsValid() {
		return "", ErrInvalidDiscipline
	}
	return d, nil
}

func (d Discipline) IsValid() bool {
	switch d {
	case DisciplineBoulder, DisciplineLead, DisciplineTopRope:
		return true
	}
	return false
}

// Scale returns the grade vocabulary used by the discipline.
func (d Discipline) Scale() Scale {
	switch d {
	case DisciplineBoulder:
		return ScaleV
	case DisciplineLead, DisciplineTopRope:
		return ScaleYDS
	}
	return ""
}

func (d Discipline) String() string {
	return string(d)
}
