package schedule

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const (
	DefaultFrequency = "30m"
	DefaultTimeout   = 10 * time.Minute
)

// Schedule is the declarative timing of one provider. Frequency is either a
// Go duration ("30m") or a cron expression ("*/15 * * * *", "@hourly").
type Schedule struct {
	Frequency    string        `yaml:"frequency" mapstructure:"frequency"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
}

func (s Schedule) WithDefaults() Schedule {
	if strings.TrimSpace(s.Frequency) == "" {
		s.Frequency = DefaultFrequency
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.InitialDelay < 0 {
		s.InitialDelay = 0
	}
	return s
}

func ParseFrequency(freq string) (cron.Schedule, error) {
	freq = strings.TrimSpace(freq)
	if d, err := time.ParseDuration(freq); err == nil {
		if d < time.Second {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				"schedule frequency "+freq+" is shorter than one second",
				"Use a frequency of at least 1s.")
		}
		return cron.Every(d), nil
	}
	sched, err := cron.ParseStandard(freq)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation,
			"invalid schedule frequency "+freq,
			"Use a duration such as 30m or a cron expression such as */15 * * * *.")
	}
	return sched, nil
}

// delayedSchedule fires once at first (or immediately when first has passed)
// and then follows inner. cron calls Next only from its run loop.
type delayedSchedule struct {
	inner cron.Schedule
	first time.Time
	fired bool
}

func (d *delayedSchedule) Next(t time.Time) time.Time {
	if !d.fired {
		d.fired = true
		if d.first.After(t) {
			return d.first
		}
		return t
	}
	return d.inner.Next(t)
}
