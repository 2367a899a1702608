package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
// Implementations return local wall-clock time; day keys are derived
// from the location of the returned value.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
