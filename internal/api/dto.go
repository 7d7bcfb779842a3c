package api

import (
	"time"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/services"
	"timesheet-admin/internal/validation"
)

// SyncLogDTO is the wire form of a SyncLog.
type SyncLogDTO struct {
	ID          int64    `json:"id"`
	RunID       string   `json:"runId"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Processed   int      `json:"processed"`
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Skipped     int      `json:"skipped"`
	Details     string   `json:"details,omitempty"`
	Errors      []string `json:"errors"`
	StartedAt   string   `json:"startedAt"`
	CompletedAt string   `json:"completedAt"`
}

// SyncLogPageDTO is a page of sync logs.
type SyncLogPageDTO struct {
	Logs  []SyncLogDTO `json:"logs"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// TimesheetDTO is the wire form of a Timesheet.
type TimesheetDTO struct {
	ID             int64  `json:"id"`
	EmployeeID     int64  `json:"employeeId"`
	WeekStarting   string `json:"weekStarting"`
	WeekEnding     string `json:"weekEnding"`
	Status         string `json:"status"`
	Verified       bool   `json:"verified"`
	ExternalStatus string `json:"externalStatus,omitempty"`
	AutoCreated    bool   `json:"autoCreated"`
}

// CreateTimesheetRequest is the body of a timesheet creation.
type CreateTimesheetRequest struct {
	EmployeeID int64  `json:"employeeId"`
	WeekOf     string `json:"weekOf"`
}

// ApproveRequest is the body of an approval.
type ApproveRequest struct {
	Approver string `json:"approver"`
}

// EntryRequest is the wire form of an entry create or update. Dates are
// YYYY-MM-DD, times HH:MM and hours decimal or H:MM. On update an empty field
// keeps the stored value.
type EntryRequest struct {
	TimesheetID int64   `json:"timesheetId,omitempty"`
	Date        string  `json:"date,omitempty"`
	StartTime   string  `json:"startTime,omitempty"`
	EndTime     string  `json:"endTime,omitempty"`
	Hours       string  `json:"hours,omitempty"`
	EntryType   string  `json:"entryType,omitempty"`
	RoleID      *int64  `json:"roleId,omitempty"`
	CompanyID   *int64  `json:"companyId,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// EntryDTO is the wire form of a TimesheetEntry.
type EntryDTO struct {
	ID              int64   `json:"id"`
	TimesheetID     int64   `json:"timesheetId"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime,omitempty"`
	EndTime         string  `json:"endTime,omitempty"`
	Hours           string  `json:"hours"`
	EntryType       string  `json:"entryType"`
	RoleID          *int64  `json:"roleId,omitempty"`
	CompanyID       *int64  `json:"companyId,omitempty"`
	Status          string  `json:"status"`
	Verified        bool    `json:"verified"`
	TSSource        bool    `json:"tsSource"`
	ExternalEntryID *string `json:"externalEntryId,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string                  `json:"error"`
	Code   string                  `json:"code,omitempty"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func toSyncLogDTO(l *domain.SyncLog) SyncLogDTO {
	errs := l.Errors
	if errs == nil {
		errs = []string{}
	}
	return SyncLogDTO{
		ID:          l.ID,
		RunID:       l.RunID,
		Type:        string(l.Type),
		Status:      string(l.Status),
		Processed:   l.Processed,
		Created:     l.Created,
		Updated:     l.Updated,
		Skipped:     l.Skipped,
		Details:     l.Details,
		Errors:      errs,
		StartedAt:   l.StartedAt.UTC().Format(time.RFC3339),
		CompletedAt: l.CompletedAt.UTC().Format(time.RFC3339),
	}
}

func toSyncLogPageDTO(page *SyncLogPage) SyncLogPageDTO {
	logs := make([]SyncLogDTO, 0, len(page.Logs))
	for _, l := range page.Logs {
		logs = append(logs, toSyncLogDTO(l))
	}
	return SyncLogPageDTO{Logs: logs, Total: page.Total, Page: page.Page, Limit: page.Limit}
}

func toTimesheetDTO(ts *domain.Timesheet) TimesheetDTO {
	return TimesheetDTO{
		ID:             ts.ID,
		EmployeeID:     ts.EmployeeID,
		WeekStarting:   ts.WeekStarting.Format("2006-01-02"),
		WeekEnding:     ts.WeekEnding.Format("2006-01-02"),
		Status:         string(ts.Status),
		Verified:       ts.Verified,
		ExternalStatus: string(ts.ExternalStatus),
		AutoCreated:    ts.AutoCreated,
	}
}

func toEntryDTO(e *domain.TimesheetEntry) EntryDTO {
	dto := EntryDTO{
		ID:              e.ID,
		TimesheetID:     e.TimesheetID,
		Date:            calendar.FormatDate(e.Date),
		Hours:           e.Hours.String(),
		EntryType:       string(e.EntryType),
		RoleID:          e.RoleID,
		CompanyID:       e.CompanyID,
		Status:          string(e.Status),
		Verified:        e.Verified,
		TSSource:        e.TSSource,
		ExternalEntryID: e.ExternalEntryID,
		Notes:           e.Notes,
	}
	if e.StartTime != nil {
		dto.StartTime = e.StartTime.String()
	}
	if e.EndTime != nil {
		dto.EndTime = e.EndTime.String()
	}
	return dto
}

// applyTo overlays the fields set in r onto input.
func (r EntryRequest) applyTo(input *services.EntryInput) error {
	if r.TimesheetID != 0 {
		input.TimesheetID = r.TimesheetID
	}
	if r.Date != "" {
		d, err := calendar.ParseDate(r.Date)
		if err != nil {
			return errors.NewInvalidInputError("date", r.Date, "must be a YYYY-MM-DD date")
		}
		input.Date = d
	}
	if r.StartTime != "" {
		c, err := calendar.ParseClock(r.StartTime)
		if err != nil {
			return errors.NewInvalidInputError("startTime", r.StartTime, "must be HH:MM")
		}
		input.StartTime = &c
	}
	if r.EndTime != "" {
		c, err := calendar.ParseClock(r.EndTime)
		if err != nil {
			return errors.NewInvalidInputError("endTime", r.EndTime, "must be HH:MM")
		}
		input.EndTime = &c
	}
	if r.Hours != "" {
		h, err := calendar.ParseHours(r.Hours)
		if err != nil {
			return errors.NewInvalidInputError("hours", r.Hours, "must be decimal hours or H:MM")
		}
		input.Hours = h
	}
	if r.EntryType != "" {
		t, err := domain.ParseEntryType(r.EntryType)
		if err != nil {
			return errors.NewInvalidInputError("entryType", r.EntryType, err.Error())
		}
		input.EntryType = t
	}
	if r.RoleID != nil {
		input.RoleID = r.RoleID
	}
	if r.CompanyID != nil {
		input.CompanyID = r.CompanyID
	}
	if r.Notes != nil {
		input.Notes = *r.Notes
	}
	return nil
}

func inputFromEntry(e *domain.TimesheetEntry) services.EntryInput {
	return services.EntryInput{
		TimesheetID: e.TimesheetID,
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Hours:       e.Hours,
		EntryType:   e.EntryType,
		RoleID:      e.RoleID,
		CompanyID:   e.CompanyID,
		Notes:       e.Notes,
	}
}
