package services

import (
	"fmt"

	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/errors"
)

// CheckEntryEditable applies the edit/delete gate to an existing entry. The
// entry's own status and its parent's external status are separate conditions
// and fail with distinct codes.
func CheckEntryEditable(entry *domain.TimesheetEntry, parent *domain.Timesheet) error {
	if !entry.Status.Editable() {
		return errors.NewConflictError(errors.CodeEntryStatusLocked,
			fmt.Sprintf("entry %d is %s and can no longer be changed", entry.ID, entry.Status))
	}
	return checkExternalOwnership(parent)
}

// CheckTimesheetAcceptsEntries applies the gate to a timesheet receiving a new entry.
func CheckTimesheetAcceptsEntries(parent *domain.Timesheet) error {
	if !parent.Status.Editable() {
		return errors.NewConflictError(errors.CodeEntryStatusLocked,
			fmt.Sprintf("timesheet %d is %s and can no longer be changed", parent.ID, parent.Status))
	}
	return checkExternalOwnership(parent)
}

func checkExternalOwnership(parent *domain.Timesheet) error {
	if parent.ExternallyReadOnly() {
		return errors.NewConflictError(errors.CodeExternalReadOnly,
			fmt.Sprintf("timesheet %d is %s in the external system and is read-only", parent.ID, parent.ExternalStatus))
	}
	return nil
}
