package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/config"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/repository/sqlite"
	"timesheet-admin/internal/validation"
)

// entryServiceImpl implements the EntryService interface
type entryServiceImpl struct {
	repo           sqlite.Repository
	logger         logrus.FieldLogger
	locker         *DayLocker
	entryValidator *validation.EntryValidator
	defaultCap     decimal.Decimal
}

// NewEntryService creates a new EntryService instance
func NewEntryService(repo sqlite.Repository, cfg *config.Config, logger logrus.FieldLogger, locker *DayLocker) EntryService {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if locker == nil {
		locker = NewDayLocker()
	}
	return &entryServiceImpl{
		repo:           repo,
		logger:         logger,
		locker:         locker,
		entryValidator: validation.NewEntryValidatorWithConfig(cfg),
		defaultCap:     cfg.Validation.DefaultMaxDailyHours,
	}
}

// CreateEntry validates and stores a locally authored entry
func (s *entryServiceImpl) CreateEntry(ctx context.Context, input EntryInput) (*domain.TimesheetEntry, error) {
	entry := entryFromInput(input)
	if err := s.entryValidator.ValidateFields(entry); err != nil {
		return nil, errors.NewValidationError("invalid entry", err)
	}

	ts, err := s.repo.GetTimesheet(ctx, entry.TimesheetID)
	if err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(ts.EmployeeID, entry.Date)
	defer unlock()

	err = s.repo.InTx(ctx, func(repo sqlite.Repository) error {
		parent, err := repo.GetTimesheet(ctx, entry.TimesheetID)
		if err != nil {
			return err
		}
		if err := CheckTimesheetAcceptsEntries(parent); err != nil {
			return err
		}
		if err := s.checkRules(ctx, repo, entry, parent); err != nil {
			return err
		}
		if err := entry.ResolveHours(); err != nil {
			return errors.NewValidationError(err.Error(), err)
		}
		entry.Status = parent.Status
		entry.TSSource = false
		return repo.CreateEntry(ctx, &entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"entryId": entry.ID, "timesheetId": entry.TimesheetID}).Debug("entry created")
	return &entry, nil
}

// UpdateEntry applies input to an existing entry. The rules are re-run only
// when the date, times or hours change.
func (s *entryServiceImpl) UpdateEntry(ctx context.Context, id int64, input EntryInput) (*domain.TimesheetEntry, error) {
	existing, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.TimesheetID == 0 {
		input.TimesheetID = existing.TimesheetID
	}

	updated := entryFromInput(input)
	updated.ID = existing.ID
	if err := s.entryValidator.ValidateFields(updated); err != nil {
		return nil, errors.NewValidationError("invalid entry", err)
	}

	ts, err := s.repo.GetTimesheet(ctx, existing.TimesheetID)
	if err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(ts.EmployeeID, existing.Date, updated.Date)
	defer unlock()

	var result *domain.TimesheetEntry
	err = s.repo.InTx(ctx, func(repo sqlite.Repository) error {
		current, err := repo.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		parent, err := repo.GetTimesheet(ctx, current.TimesheetID)
		if err != nil {
			return err
		}
		if err := CheckEntryEditable(current, parent); err != nil {
			return err
		}

		target := parent
		if updated.TimesheetID != current.TimesheetID {
			if target, err = repo.GetTimesheet(ctx, updated.TimesheetID); err != nil {
				return err
			}
			if err := CheckTimesheetAcceptsEntries(target); err != nil {
				return err
			}
		}

		if timingChanged(*current, updated) || target.ID != parent.ID {
			if err := s.checkRules(ctx, repo, updated, target); err != nil {
				return err
			}
		}
		if err := updated.ResolveHours(); err != nil {
			return errors.NewValidationError(err.Error(), err)
		}

		next := *current
		next.TimesheetID = updated.TimesheetID
		next.Date = updated.Date
		next.StartTime = updated.StartTime
		next.EndTime = updated.EndTime
		next.Hours = updated.Hours
		next.EntryType = updated.EntryType
		next.RoleID = updated.RoleID
		next.CompanyID = updated.CompanyID
		next.Notes = updated.Notes
		if err := repo.UpdateEntry(ctx, &next); err != nil {
			return err
		}
		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteEntry removes an entry when the gate allows it
func (s *entryServiceImpl) DeleteEntry(ctx context.Context, id int64) error {
	return s.repo.InTx(ctx, func(repo sqlite.Repository) error {
		entry, err := repo.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		parent, err := repo.GetTimesheet(ctx, entry.TimesheetID)
		if err != nil {
			return err
		}
		if err := CheckEntryEditable(entry, parent); err != nil {
			return err
		}
		return repo.DeleteEntry(ctx, id)
	})
}

func (s *entryServiceImpl) checkRules(ctx context.Context, repo sqlite.Repository, candidate domain.TimesheetEntry, parent *domain.Timesheet) error {
	employee, err := repo.GetEmployee(ctx, parent.EmployeeID)
	if err != nil {
		return err
	}
	siblings, err := repo.ListEntriesForEmployeeDate(ctx, parent.EmployeeID, candidate.Date)
	if err != nil {
		return err
	}

	if err := s.entryValidator.Check(candidate, siblings, parent.WeekStarting, parent.WeekEnding, employee.DailyCap(s.defaultCap)); err != nil {
		return errors.NewValidationError(err.Error(), err)
	}
	return nil
}

func entryFromInput(input EntryInput) domain.TimesheetEntry {
	entryType := input.EntryType
	if entryType == "" {
		entryType = domain.EntryTypeGeneral
	}
	return domain.TimesheetEntry{
		TimesheetID: input.TimesheetID,
		Date:        calendar.DateOf(input.Date),
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Hours:       input.Hours,
		EntryType:   entryType,
		RoleID:      input.RoleID,
		CompanyID:   input.CompanyID,
		Notes:       input.Notes,
	}
}

func timingChanged(current, next domain.TimesheetEntry) bool {
	return !calendar.SameDay(current.Date, next.Date) ||
		!clockEqual(current.StartTime, next.StartTime) ||
		!clockEqual(current.EndTime, next.EndTime) ||
		(!next.HasTimes() && !current.Hours.Equal(next.Hours))
}

func clockEqual(a, b *calendar.Clock) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
