package cycle

import (
	"math"
	"time"
)

const (
	PhaseMenstrual  = "Menstrual Phase"
	PhaseFollicular = "Follicular Phase"
	PhaseOvulation  = "Ovulation Phase"
	PhaseLuteal     = "Luteal Phase"
)

const (
	defaultCycleLengthDays  = 28
	defaultPeriodLengthDays = 5

	// day-of-cycle boundaries for the ovulation window; the app shows
	// these as fixed constants regardless of the user's cycle length
	ovulationStartDay = 14
	ovulationEndDay   = 16
)

// Profile holds the cycle data stored on the user profile.
// Zero values mean "not set" and get the defaults applied.
type Profile struct {
	LastPeriodStart  *time.Time `json:"last_period_start,omitempty"`
	CycleLengthDays  int        `json:"cycle_length_days"`
	PeriodLengthDays int        `json:"period_length_days"`
}

type Info struct {
	Phase               string    `json:"phase"`
	DayOfCycle          int       `json:"day_of_cycle"`
	DaysUntilNextPeriod int       `json:"days_until_next_period"`
	LastPeriodEnd       time.Time `json:"last_period_end"`
	NextPeriodStart     time.Time `json:"next_period_start"`
}

// Calculate derives the current point in the cycle from the stored profile
// and the given date. Pure function, no side effects.
//
// DaysUntilNextPeriod goes negative when the next period is overdue.
func Calculate(p Profile, today time.Time) Info {
	cycleLength := p.CycleLengthDays
	if cycleLength <= 0 {
		cycleLength = defaultCycleLengthDays
	}
	periodLength := p.PeriodLengthDays
	if periodLength <= 0 {
		periodLength = defaultPeriodLengthDays
	}

	todayDate := toDate(today)

	lastStart := todayDate.AddDate(0, 0, -20)
	if p.LastPeriodStart != nil {
		lastStart = toDate(*p.LastPeriodStart)
	}

	lastEnd := lastStart.AddDate(0, 0, periodLength-1)
	nextStart := lastStart.AddDate(0, 0, cycleLength)

	daysSinceStart := daysBetween(lastStart, todayDate)
	daysUntilNext := daysBetween(todayDate, nextStart)

	return Info{
		Phase:               phaseFor(daysSinceStart, periodLength),
		DayOfCycle:          daysSinceStart + 1,
		DaysUntilNextPeriod: daysUntilNext,
		LastPeriodEnd:       lastEnd,
		NextPeriodStart:     nextStart,
	}
}

func phaseFor(daysSinceStart, periodLength int) string {
	switch {
	case daysSinceStart < periodLength:
		return PhaseMenstrual
	case daysSinceStart < ovulationStartDay:
		return PhaseFollicular
	case daysSinceStart < ovulationEndDay:
		return PhaseOvulation
	default:
		return PhaseLuteal
	}
}

func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from one midnight to another;
// rounding absorbs DST shifted days.
func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
