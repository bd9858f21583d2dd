package scheduler

import (
	"time"

	"github.com/sirupsen/logrus"

	"mudengine/internal/worldmodel"
)

// NewWanderJob builds the primary-tick autonomous wander job spec.md §4.5
// assigns the scheduler: "walk the active monster set... for autonomous
// behaviors (wander...)". Grounded on wanderInfo.cpp's WanderInfo::traffic
// (a 0-100 percent roll) and WanderInfo::getRandom (pick one CatRef from
// the area's random-monster table) — here generalized to worldmodel.Room's
// WanderDescriptor, with roll and spawn injected so the scheduler package
// never imports the cache/content packages that actually instantiate a
// monster from its CatRef.
func NewWanderJob(rooms func() []*worldmodel.Room, roll func(max int) int, spawn func(tableArea string) (*worldmodel.Monster, bool)) *Job {
	return &Job{
		Label:  "wander",
		Period: DefaultPrimaryPeriod,
		Fn: func(now time.Time) time.Duration {
			for _, r := range rooms() {
				if !r.Wander.Enabled {
					continue
				}
				if roll(100) >= r.Wander.PercentRoll {
					continue
				}
				m, ok := spawn(r.Wander.TableArea)
				if !ok {
					continue
				}
				r.Monsters.Add(r, m)
			}
			return 0
		},
	}
}

// NewCooldownExpiryJob builds the job that walks a per-entity cooldown
// store and clears deadlines that have elapsed (spec.md §4.5: "expire
// per-entity cooldown timers whose deadline <= now"). expire owns the
// actual store; this just supplies the cadence.
func NewCooldownExpiryJob(period time.Duration, expire func(now time.Time)) *Job {
	return &Job{
		Label:  "cooldown-expiry",
		Period: period,
		Fn: func(now time.Time) time.Duration {
			expire(now)
			return 0
		},
	}
}

// NewSaveAllJob builds the periodic "snapshot all connected players to
// disk" job (spec.md §4.5), grounded on the teacher's graceful-shutdown
// "save player data" step generalized from a one-shot shutdown action into
// a recurring job. A save error is logged, never panics the tick loop.
func NewSaveAllJob(period time.Duration, save func() error, log *logrus.Logger) *Job {
	return &Job{
		Label:  "save-all",
		Period: period,
		Fn: func(now time.Time) time.Duration {
			if err := save(); err != nil && log != nil {
				log.WithError(err).Warn("save-all failed")
			}
			return 0
		},
	}
}
