package subscription

import (
	"fmt"
	"strings"
	"time"
)

// DurationUnit is the unit a plan duration is expressed in.
type DurationUnit string

const (
	UnitDays   DurationUnit = "DAYS"
	UnitWeeks  DurationUnit = "WEEKS"
	UnitMonths DurationUnit = "MONTHS"
)

// Day is the length of one plan day.
const Day = 24 * time.Hour

// Valid reports whether u is a known unit.
func (u DurationUnit) Valid() bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths:
		return true
	}
	return false
}

// ParseDurationUnit parses a unit case-insensitively.
func ParseDurationUnit(s string) (DurationUnit, error) {
	u := DurationUnit(strings.ToUpper(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDurationUnit, s)
	}
	return u, nil
}

// Plan is an immutable catalogue entry.
type Plan struct {
	ID           int          `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Description  string       `json:"description,omitempty" yaml:"description"`
	Duration     int          `json:"duration" yaml:"duration"`
	DurationUnit DurationUnit `json:"duration_unit" yaml:"duration_unit"`
	// Price is the decimal amount as rendered by the server, e.g. "1000.00".
	Price    string `json:"price" yaml:"price"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
}

// DurationInDays converts the plan duration to days.
// A week counts as 7 days and a month as 30. Unknown units yield 0.
func (p Plan) DurationInDays() int {
	switch p.DurationUnit {
	case UnitDays:
		return p.Duration
	case UnitWeeks:
		return p.Duration * 7
	case UnitMonths:
		return p.Duration * 30
	}
	return 0
}

// Period is the access time the plan grants.
func (p Plan) Period() time.Duration {
	return time.Duration(p.DurationInDays()) * Day
}

// EndsAt is the end of a subscription to p starting at start.
func (p Plan) EndsAt(start time.Time) time.Time {
	return start.Add(p.Period())
}

func (p Plan) String() string {
	return fmt.Sprintf("%s - %d %s - %s Ar", p.Name, p.Duration, strings.ToLower(string(p.DurationUnit)), p.Price)
}

// FindPlan returns the plan with the given id.
func FindPlan(plans []Plan, id int) (Plan, error) {
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, ErrPlanNotFound
}
