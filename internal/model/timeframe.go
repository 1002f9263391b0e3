package model

import "fmt"

// Interval is the granularity of a snapshot ladder.
type Interval string

const (
	Hourly Interval = "HOURLY"
	Daily  Interval = "DAILY"
)

// Seconds returns the length of one ladder slot.
func (i Interval) Seconds() int64 {
	if i == Daily {
		return SecondsPerDay
	}
	return SecondsPerHour
}

func (i Interval) slug() string {
	if i == Daily {
		return "day"
	}
	return "hour"
}

// Timeframe identifies a rolling window.
type Timeframe string

const (
	Day     Timeframe = "DAY"
	Week    Timeframe = "WEEK"
	Month   Timeframe = "MONTH"
	Quarter Timeframe = "QUARTER"
)

// Timeframes lists the rolling windows in ascending length. The position of a
// timeframe in this slice is its index into Pool.YieldWindows.
var Timeframes = [4]Timeframe{Day, Week, Month, Quarter}

// Days returns the window length in days.
func (t Timeframe) Days() int64 {
	switch t {
	case Day:
		return 1
	case Week:
		return 7
	case Month:
		return 30
	case Quarter:
		return 90
	default:
		return 0
	}
}

// Seconds returns the window length in seconds.
func (t Timeframe) Seconds() int64 {
	return t.Days() * SecondsPerDay
}

// Index returns the position of t in Timeframes.
func (t Timeframe) Index() int {
	for i, tf := range Timeframes {
		if tf == t {
			return i
		}
	}
	panic(fmt.Sprintf("unknown timeframe %q", string(t)))
}
