package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timesheet-admin/internal/calendar"
)

// Identifier types attached to employees.
const (
	IdentifierExternalWorkerID = "EXTERNAL_WORKER_ID"
	IdentifierWorkEmail        = "WORK_EMAIL"
)

// Schedule is an employee's default working day, used when an entry has to be
// synthesised from a duration alone.
type Schedule struct {
	MorningStart   calendar.Clock
	MorningEnd     calendar.Clock
	AfternoonStart calendar.Clock
	AfternoonEnd   calendar.Clock
}

// Employee is created administratively. The sync engine only ever adds identifiers.
type Employee struct {
	ID             int64
	FirstName      string
	LastName       string
	Email          string
	MorningStart   *calendar.Clock
	MorningEnd     *calendar.Clock
	AfternoonStart *calendar.Clock
	AfternoonEnd   *calendar.Clock
	MaxDailyHours  *decimal.Decimal
	Identifiers    []ExternalIdentifier
	CreatedAt      time.Time
}

// ExternalIdentifier is a typed key attached to an employee, optionally scoped to a company.
type ExternalIdentifier struct {
	ID         int64
	EmployeeID int64
	Type       string
	Value      string
	CompanyID  *int64
}

// FullName returns the display name.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Identifier returns the first identifier value of the given type.
func (e Employee) Identifier(idType string) (string, bool) {
	for _, id := range e.Identifiers {
		if id.Type == idType && id.Value != "" {
			return id.Value, true
		}
	}
	return "", false
}

// DailyCap returns the employee's max daily hours, or def when unset.
func (e Employee) DailyCap(def decimal.Decimal) decimal.Decimal {
	if e.MaxDailyHours != nil && e.MaxDailyHours.IsPositive() {
		return *e.MaxDailyHours
	}
	return def
}

// ScheduleOr fills unset schedule fields from def.
func (e Employee) ScheduleOr(def Schedule) Schedule {
	s := def
	if e.MorningStart != nil {
		s.MorningStart = *e.MorningStart
	}
	if e.MorningEnd != nil {
		s.MorningEnd = *e.MorningEnd
	}
	if e.AfternoonStart != nil {
		s.AfternoonStart = *e.AfternoonStart
	}
	if e.AfternoonEnd != nil {
		s.AfternoonEnd = *e.AfternoonEnd
	}
	return s
}

// Company is a client organisation hours are booked against.
type Company struct {
	ID   int64
	Name string
}

// Role is a job role an employee can hold at a company.
type Role struct {
	ID   int64
	Name string
}

// RoleAssignment links an employee to a role at a company.
type RoleAssignment struct {
	ID          int64
	EmployeeID  int64
	RoleID      int64
	RoleName    string
	CompanyID   int64
	CompanyName string
	Active      bool
}

// PickAssignment chooses the assignment for a row from the given source
// location: an exact (case-insensitive) company-name match wins, otherwise the
// first active assignment. ok is false when no assignment is active.
func PickAssignment(assignments []RoleAssignment, sourceLocation string) (RoleAssignment, bool) {
	label := strings.TrimSpace(sourceLocation)
	var fallback *RoleAssignment
	for i := range assignments {
		a := assignments[i]
		if !a.Active {
			continue
		}
		if label != "" && strings.EqualFold(strings.TrimSpace(a.CompanyName), label) {
			return a, true
		}
		if fallback == nil {
			fallback = &assignments[i]
		}
	}
	if fallback == nil {
		return RoleAssignment{}, false
	}
	return *fallback, true
}
