package chainindex

import "time"

// TimeSource supplies the "adjusted now" the template assembler clamps
// block time against.
//
// Grounded on blockdag/timesource.go's TimeSource interface, kept as a
// single-second-precision wall clock (the teacher's own implementation
// never does real peer-time-offset adjustment either, just local time).
type TimeSource interface {
	Now() time.Time
}

type wallClockTimeSource struct{}

func (wallClockTimeSource) Now() time.Time {
	return time.Unix(time.Now().Unix(), 0)
}

// NewTimeSource returns a TimeSource backed by the local wall clock.
func NewTimeSource() TimeSource {
	return wallClockTimeSource{}
}
