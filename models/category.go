package models

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the declared material of a detected item.
type Category string

const (
	CategoryPlastic   Category = "plastic"
	CategoryCan       Category = "can"
	CategoryPaper     Category = "paper"
	CategoryGlass     Category = "glass"
	CategoryCardboard Category = "cardboard"
)

// Categories lists every category the sorting bins may report.
var Categories = []Category{
	CategoryPlastic,
	CategoryCan,
	CategoryPaper,
	CategoryGlass,
	CategoryCardboard,
}

// ErrUnknownCategory is returned for labels outside the Categories enum.
var ErrUnknownCategory = errors.New("unknown category")

// ParseCategory normalizes a raw label ("Plastic ", "CAN") into a Category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
	return c, nil
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultPointValue is awarded for categories missing from a schedule.
const DefaultPointValue = 10

// PointSchedule maps a category to the points one item is worth.
type PointSchedule map[Category]int

// DefaultPointSchedule has no cardboard entry; it falls back to DefaultPointValue.
var DefaultPointSchedule = PointSchedule{
	CategoryPlastic: 10,
	CategoryCan:     10,
	CategoryPaper:   10,
	CategoryGlass:   15,
}

// NewPointSchedule layers raw overrides (e.g. from POINT_SCHEDULE) on top of the defaults.
func NewPointSchedule(overrides map[string]int) (PointSchedule, error) {
	schedule := make(PointSchedule, len(DefaultPointSchedule)+len(overrides))
	for c, pts := range DefaultPointSchedule {
		schedule[c] = pts
	}
	for raw, pts := range overrides {
		c, err := ParseCategory(raw)
		if err != nil {
			return nil, err
		}
		if pts < 0 {
			return nil, fmt.Errorf("negative point value %d for %s", pts, c)
		}
		schedule[c] = pts
	}
	return schedule, nil
}

func (s PointSchedule) PointsFor(c Category) int {
	if pts, ok := s[c]; ok {
		return pts
	}
	return DefaultPointValue
}
