package maintenance

import (
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Window is the single persisted maintenance configuration record.
//
// StartAt and EndAt hold the operator's raw input ("" when unset) and are
// only resolved into instants at evaluation time; a value that no longer
// parses must stay representable so the evaluators can fail safe on it.
type Window struct {
	Active    bool      `json:"active"`
	StartAt   string    `json:"start_at"`
	EndAt     string    `json:"end_at"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// State is the effective standing of a Window at a given instant.
type State int

const (
	// StateInactive: no enforcement, nothing scheduled or pending.
	StateInactive State = iota
	// StateScheduled: the active flag is raised but the start instant is
	// still in the future; requests pass through.
	StateScheduled
	// StateEnforcing: non-exempt requests are blocked.
	StateEnforcing
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateEnforcing:
		return "enforcing"
	default:
		return "inactive"
	}
}

// UpdateWindow defines what an administrator may edit on the Window.
type UpdateWindow struct {
	Active  bool   `json:"active"`
	StartAt string `json:"start_at" validate:"omitempty,mainttime"`
	EndAt   string `json:"end_at" validate:"omitempty,mainttime"`
	Message string `json:"message" validate:"omitempty,max=500"`
}

func (uw *UpdateWindow) Validate() error {
	uw.StartAt = core.CleanString(uw.StartAt)
	uw.EndAt = core.CleanString(uw.EndAt)
	uw.Message = core.CleanString(uw.Message)
	return core.Validate.Struct(uw)
}

// Notice is what the maintenance page shows to blocked users.
type Notice struct {
	Message string     `json:"message"`
	EndsAt  *time.Time `json:"ends_at,omitempty"`
}
