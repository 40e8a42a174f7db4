package uptime

import "time"

// Durations accumulates uptime and downtime.
type Durations struct {
	Uptime   time.Duration
	Downtime time.Duration
}

// Add returns the sum of d and other.
func (d Durations) Add(other Durations) Durations {
	return Durations{
		Uptime:   d.Uptime + other.Uptime,
		Downtime: d.Downtime + other.Downtime,
	}
}

// UptimeMinutes reports uptime as total seconds / 60.
func (d Durations) UptimeMinutes() float64 {
	return d.Uptime.Seconds() / 60
}

// DowntimeMinutes reports downtime as total seconds / 60.
func (d Durations) DowntimeMinutes() float64 {
	return d.Downtime.Seconds() / 60
}

// Aggregate attributes time within one open period to uptime or downtime.
//
// Each observation's status holds from its own instant until the next observation, and the
// last one holds until periodEnd. Nothing is assumed before the first observation, so an empty
// stream yields zero for both. observations must be ascending and confined to
// [periodStart, periodEnd].
func Aggregate(observations []Observation, periodStart, periodEnd time.Time) Durations {
	var total Durations
	if len(observations) == 0 || periodEnd.Before(periodStart) {
		return total
	}
	for i, obs := range observations {
		until := periodEnd
		if i+1 < len(observations) {
			until = observations[i+1].At
		}
		held := until.Sub(obs.At)
		if held < 0 {
			held = 0
		}
		if obs.Status == StatusActive {
			total.Uptime += held
		} else {
			total.Downtime += held
		}
	}
	return total
}
