package maintenance

import (
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// NewServiceMock returns a Service evaluating against an injected clock.
func NewServiceMock(repo Repository, conf *core.Config, logger core.Logger, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    repo,
		conf:    conf,
		logger:  logger,
		nowFunc: now,
	}
}
