package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/external"
	"timesheet-admin/internal/logging"
	"timesheet-admin/internal/repository/sqlite"
	"timesheet-admin/internal/validation"
)

// timesheetServiceImpl implements the TimesheetService interface
type timesheetServiceImpl struct {
	repo               sqlite.Repository
	logger             logrus.FieldLogger
	dispatcher         Dispatcher
	notifier           external.Notifier
	payroll            external.PayrollSync
	timesheetValidator *validation.TimesheetValidator
	now                func() time.Time
}

// TimesheetDeps are the collaborators of the timesheet service. A nil
// notifier or payroll sync disables that side effect.
type TimesheetDeps struct {
	Logger     logrus.FieldLogger
	Dispatcher Dispatcher
	Notifier   external.Notifier
	Payroll    external.PayrollSync
}

// NewTimesheetService creates a new TimesheetService instance
func NewTimesheetService(repo sqlite.Repository, deps TimesheetDeps) TimesheetService {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &timesheetServiceImpl{
		repo:               repo,
		logger:             logger,
		dispatcher:         deps.Dispatcher,
		notifier:           deps.Notifier,
		payroll:            deps.Payroll,
		timesheetValidator: validation.NewTimesheetValidator(),
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// CreateTimesheet creates an empty OPEN timesheet for the week containing weekOf
func (s *timesheetServiceImpl) CreateTimesheet(ctx context.Context, employeeID int64, weekOf time.Time) (*domain.Timesheet, error) {
	if err := s.timesheetValidator.ValidateTimesheetForCreation(employeeID, weekOf); err != nil {
		return nil, errors.NewValidationError("invalid timesheet", err)
	}

	ts := domain.NewTimesheet(employeeID, weekOf)
	if err := s.timesheetValidator.ValidateTimesheet(ts); err != nil {
		return nil, errors.NewValidationError("invalid timesheet", err)
	}
	err := s.repo.InTx(ctx, func(repo sqlite.Repository) error {
		if _, err := repo.GetEmployee(ctx, employeeID); err != nil {
			return err
		}
		existing, err := repo.FindTimesheetsInWindow(ctx, employeeID, ts.WeekStarting, ts.WeekStarting)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errors.NewConflictError(errors.CodeDuplicateWeek,
				fmt.Sprintf("employee %d already has timesheet %d for the week of %s",
					employeeID, existing[0].ID, calendar.FormatDate(ts.WeekStarting)))
		}
		return repo.CreateTimesheet(ctx, &ts)
	})
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// Submit moves a timesheet holding at least one entry to SUBMITTED
func (s *timesheetServiceImpl) Submit(ctx context.Context, id int64) (*domain.Timesheet, error) {
	var recipient string
	ts, err := s.transition(ctx, id, domain.ActionSubmit, func(repo sqlite.Repository, ts *domain.Timesheet) error {
		count, err := repo.CountEntries(ctx, ts.ID)
		if err != nil {
			return err
		}
		if count == 0 {
			return errors.NewValidationError("a timesheet must have at least one entry to be submitted", nil)
		}
		now := s.now()
		ts.SubmittedAt = &now
		recipient, err = s.recipient(ctx, repo, ts.EmployeeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(external.NotifySubmitted, recipient, *ts)
	return ts, nil
}

// Approve moves a submitted timesheet to APPROVED and records the approver
func (s *timesheetServiceImpl) Approve(ctx context.Context, id int64, approver string) (*domain.Timesheet, error) {
	if approver == "" {
		return nil, errors.NewInvalidInputError("approver", approver, "approver is required")
	}

	var recipient string
	ts, err := s.transition(ctx, id, domain.ActionApprove, func(repo sqlite.Repository, ts *domain.Timesheet) error {
		now := s.now()
		ts.ApprovedAt = &now
		ts.ApprovedBy = approver
		var err error
		recipient, err = s.recipient(ctx, repo, ts.EmployeeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(external.NotifyApproved, recipient, *ts)
	if s.payroll != nil && s.dispatcher != nil {
		snapshot := *ts
		s.dispatcher.Dispatch("payroll-sync", func(ctx context.Context) error {
			return s.payroll.SyncApproved(ctx, snapshot)
		})
	}
	return ts, nil
}

// Lock sets LOCKED unconditionally
func (s *timesheetServiceImpl) Lock(ctx context.Context, id int64) (*domain.Timesheet, error) {
	return s.transition(ctx, id, domain.ActionLock, nil)
}

// Unlock re-opens a LOCKED timesheet as UNLOCKED
func (s *timesheetServiceImpl) Unlock(ctx context.Context, id int64) (*domain.Timesheet, error) {
	return s.transition(ctx, id, domain.ActionUnlock, nil)
}

// MarkProcessed records payroll confirmation of an APPROVED or LOCKED timesheet
func (s *timesheetServiceImpl) MarkProcessed(ctx context.Context, id int64) (*domain.Timesheet, error) {
	return s.transition(ctx, id, domain.ActionProcess, nil)
}

// OverrideStatus sets any known status as a privileged action
func (s *timesheetServiceImpl) OverrideStatus(ctx context.Context, req validation.StatusOverrideRequest) (*domain.Timesheet, error) {
	status, err := s.timesheetValidator.ValidateStatusOverride(req)
	if err != nil {
		return nil, errors.NewValidationError("invalid status override", err)
	}

	var ts *domain.Timesheet
	err = s.repo.InTx(ctx, func(repo sqlite.Repository) error {
		var err error
		ts, err = s.apply(ctx, repo, req.TimesheetID, status, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"timesheetId": ts.ID,
		"status":      status,
		"actor":       req.Actor,
	}).Info("timesheet status overridden")
	return ts, nil
}

// RepairEntryStatuses forces every entry to mirror its timesheet's status
func (s *timesheetServiceImpl) RepairEntryStatuses(ctx context.Context) (*RepairResult, error) {
	result := &RepairResult{RunID: uuid.NewString()}
	started := s.now()

	err := s.repo.InTx(ctx, func(repo sqlite.Repository) error {
		timesheets, err := repo.ListTimesheets(ctx)
		if err != nil {
			return err
		}
		for _, ts := range timesheets {
			n, err := repo.UpdateEntryStatusesForTimesheet(ctx, ts.ID, ts.Status)
			if err != nil {
				return err
			}
			result.TimesheetsScanned++
			if n > 0 {
				result.TimesheetsTouched++
				result.EntriesUpdated += n
			}
		}
		return nil
	})

	log := &domain.SyncLog{
		RunID:       result.RunID,
		Type:        domain.SyncLogStatusRepair,
		Processed:   result.TimesheetsScanned,
		Updated:     int(result.EntriesUpdated),
		Details:     fmt.Sprintf("%d timesheets touched", result.TimesheetsTouched),
		StartedAt:   started,
		CompletedAt: s.now(),
	}
	if err != nil {
		log.Errors = []string{err.Error()}
	}
	log.Status = domain.RunStatusFor(log.Errors, err != nil)
	if logErr := s.repo.CreateSyncLog(ctx, log); logErr != nil {
		logging.LogError(s.logger, "services", "RepairEntryStatuses", "write sync log", nil, logErr)
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

// transition applies action to a timesheet inside a transaction, runs extra
// against the loaded timesheet and cascades the new status to its entries.
func (s *timesheetServiceImpl) transition(ctx context.Context, id int64, action domain.Action, extra func(repo sqlite.Repository, ts *domain.Timesheet) error) (*domain.Timesheet, error) {
	var ts *domain.Timesheet
	err := s.repo.InTx(ctx, func(repo sqlite.Repository) error {
		current, err := repo.GetTimesheet(ctx, id)
		if err != nil {
			return err
		}
		target, err := domain.Transition(current.Status, action)
		if err != nil {
			return errors.NewConflictError(errors.CodeInvalidTransition, err.Error())
		}
		ts, err = s.apply(ctx, repo, id, target, func(t *domain.Timesheet) error {
			if extra == nil {
				return nil
			}
			return extra(repo, t)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *timesheetServiceImpl) apply(ctx context.Context, repo sqlite.Repository, id int64, status domain.Status, mutate func(*domain.Timesheet) error) (*domain.Timesheet, error) {
	ts, err := repo.GetTimesheet(ctx, id)
	if err != nil {
		return nil, err
	}
	ts.Status = status
	if mutate != nil {
		if err := mutate(ts); err != nil {
			return nil, err
		}
	}
	if err := repo.UpdateTimesheet(ctx, ts); err != nil {
		return nil, err
	}
	if _, err := repo.UpdateEntryStatusesForTimesheet(ctx, ts.ID, status); err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *timesheetServiceImpl) recipient(ctx context.Context, repo sqlite.Repository, employeeID int64) (string, error) {
	employee, err := repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return "", err
	}
	if email, ok := employee.Identifier(domain.IdentifierWorkEmail); ok {
		return email, nil
	}
	return employee.Email, nil
}

// notify is dispatched after the transition has committed
func (s *timesheetServiceImpl) notify(kind external.NotificationKind, recipient string, ts domain.Timesheet) {
	if s.notifier == nil || s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(string(kind), func(ctx context.Context) error {
		return s.notifier.Notify(ctx, kind, recipient, ts)
	})
}
