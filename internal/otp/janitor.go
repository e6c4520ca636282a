package otp

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/robfig/cron/v3"
)

// Purger drops expired challenges and reports how many went.
type Purger interface {
	Purge() int
}

// Janitor purges a Purger on a cron schedule such as "@every 1m".
type Janitor struct {
	cron   *cron.Cron
	logger logging.Logger
}

func NewJanitor(schedule string, p Purger, logger logging.Logger) (*Janitor, error) {
	j := &Janitor{cron: cron.New(), logger: logger.With("module", "otp_janitor")}

	_, err := j.cron.AddFunc(schedule, func() {
		if n := p.Purge(); n > 0 {
			j.logger.Debug(context.Background(), "purged expired challenges", "count", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("otp janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Run purges until ctx is done and waits for a running purge to finish.
func (j *Janitor) Run(ctx context.Context) {
	j.cron.Start()
	<-ctx.Done()
	<-j.cron.Stop().Done()
}
