package sink

import (
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Schedule registers tick to run every interval on s. Returned is the job
// handle, useful only for tests that want to await a tick; callers that
// just need the side effect can discard it.
func Schedule(s gocron.Scheduler, interval time.Duration, tick func()) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(tick),
	)
}
