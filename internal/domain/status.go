package domain

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state shared by Timesheet and TimesheetEntry.
type Status string

const (
	StatusOpen             Status = "OPEN"
	StatusIncomplete       Status = "INCOMPLETE"
	StatusSubmitted        Status = "SUBMITTED"
	StatusAwaitingApproval Status = "AWAITING_APPROVAL"
	StatusApproved         Status = "APPROVED"
	StatusLocked           Status = "LOCKED"
	StatusUnlocked         Status = "UNLOCKED"
	StatusProcessed        Status = "PROCESSED"
)

// statusRank is the single ordering used by every merge and monotonic-advance
// decision. AWAITING_APPROVAL ranks with SUBMITTED and UNLOCKED with OPEN.
var statusRank = map[Status]int{
	StatusOpen:             0,
	StatusUnlocked:         0,
	StatusIncomplete:       1,
	StatusSubmitted:        2,
	StatusAwaitingApproval: 2,
	StatusApproved:         3,
	StatusLocked:           4,
	StatusProcessed:        5,
}

// AllStatuses lists every known status.
func AllStatuses() []Status {
	return []Status{
		StatusOpen, StatusIncomplete, StatusSubmitted, StatusAwaitingApproval,
		StatusApproved, StatusLocked, StatusUnlocked, StatusProcessed,
	}
}

// ParseStatus parses a status name case-insensitively and rejects unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the position of s in the status order, or -1 for unknown values.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is at or beyond other in the status order.
func (s Status) AtLeast(other Status) bool {
	return s.Rank() >= other.Rank()
}

// Finalized reports whether s is at or beyond APPROVED. Finalized weeks are
// never modified by the reconciliation engine.
func (s Status) Finalized() bool {
	return s.AtLeast(StatusApproved)
}

// Editable reports whether entries in this status accept interactive edits.
func (s Status) Editable() bool {
	return s == StatusOpen || s == StatusUnlocked
}

// ExternallyReadOnly reports whether an external system reporting this status
// has taken ownership of the week.
func (s Status) ExternallyReadOnly() bool {
	switch s {
	case StatusSubmitted, StatusAwaitingApproval, StatusApproved, StatusLocked, StatusProcessed:
		return true
	}
	return false
}

// Advance returns the status that results from merging incoming into current
// without ever moving backwards, and whether it differs from current.
func Advance(current, incoming Status) (Status, bool) {
	if incoming.Rank() > current.Rank() {
		return incoming, true
	}
	return current, false
}

// Highest returns the most advanced status in the list, or OPEN when empty.
func Highest(statuses ...Status) Status {
	best := StatusOpen
	for _, s := range statuses {
		if s.Rank() > best.Rank() {
			best = s
		}
	}
	return best
}

// Action is a status transition request.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionLock    Action = "lock"
	ActionUnlock  Action = "unlock"
	ActionProcess Action = "process"
)

var transitionSources = map[Action][]Status{
	ActionSubmit:  {StatusOpen, StatusIncomplete, StatusUnlocked},
	ActionApprove: {StatusSubmitted, StatusAwaitingApproval},
	ActionUnlock:  {StatusLocked},
	ActionProcess: {StatusApproved, StatusLocked},
}

var transitionTargets = map[Action]Status{
	ActionSubmit:  StatusSubmitted,
	ActionApprove: StatusApproved,
	ActionLock:    StatusLocked,
	ActionUnlock:  StatusUnlocked,
	ActionProcess: StatusProcessed,
}

// Transition returns the target status for applying action to from. Lock is
// unconditional; the other actions are only legal from their listed sources.
func Transition(from Status, action Action) (Status, error) {
	target, ok := transitionTargets[action]
	if !ok {
		return "", fmt.Errorf("unknown action %q", action)
	}
	sources, restricted := transitionSources[action]
	if !restricted {
		return target, nil
	}
	for _, s := range sources {
		if s == from {
			return target, nil
		}
	}
	return "", fmt.Errorf("cannot %s a timesheet in status %s", action, from)
}
