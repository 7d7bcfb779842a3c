package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"timesheet-admin/internal/calendar"
	"timesheet-admin/internal/domain"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/logging"
	"timesheet-admin/internal/validation"
)

// Handler serves the operational endpoints over an API.
type Handler struct {
	api    API
	logger logrus.FieldLogger
}

// NewHandler creates a handler. A nil logger discards output.
func NewHandler(api API, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{api: api, logger: logger.WithField("module", "api")}
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RunSync triggers one reconciliation run and returns its summary. A run that
// finds another in progress answers 409 with the skipped summary.
// POST /api/sync/run
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	summary, err := h.api.RunSync(r.Context())
	if err != nil {
		h.writeError(w, "RunSync", err)
		return
	}
	if summary.Skipped {
		writeJSON(w, http.StatusConflict, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CleanupEntries runs the duplicate-entry cleanup pass.
// POST /api/sync/cleanup-entries
func (h *Handler) CleanupEntries(w http.ResponseWriter, r *http.Request) {
	summary, err := h.api.CleanupDuplicateEntries(r.Context())
	if err != nil {
		h.writeError(w, "CleanupEntries", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// MergeTimesheets runs the duplicate-timesheet merge pass.
// POST /api/sync/merge-timesheets
func (h *Handler) MergeTimesheets(w http.ResponseWriter, r *http.Request) {
	summary, err := h.api.MergeDuplicateTimesheets(r.Context())
	if err != nil {
		h.writeError(w, "MergeTimesheets", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListSyncLogs pages through sync logs, newest first.
// GET /api/sync/logs?type=&status=&page=&limit=
func (h *Handler) ListSyncLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSyncLogFilter(r)
	if err != nil {
		h.writeError(w, "ListSyncLogs", err)
		return
	}

	page, err := h.api.ListSyncLogs(r.Context(), filter)
	if err != nil {
		h.writeError(w, "ListSyncLogs", err)
		return
	}
	writeJSON(w, http.StatusOK, toSyncLogPageDTO(page))
}

// RepairStatuses forces every entry's status to its timesheet's status.
// POST /api/timesheets/repair-status
func (h *Handler) RepairStatuses(w http.ResponseWriter, r *http.Request) {
	result, err := h.api.RepairEntryStatuses(r.Context())
	if err != nil {
		h.writeError(w, "RepairStatuses", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// OverrideStatus sets a timesheet's status directly, cascading to its entries.
// POST /api/timesheets/{id}/status
func (h *Handler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, "OverrideStatus", err)
		return
	}

	var req validation.StatusOverrideRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "OverrideStatus", err)
		return
	}
	req.TimesheetID = id

	ts, err := h.api.OverrideStatus(r.Context(), req)
	if err != nil {
		h.writeError(w, "OverrideStatus", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(ts))
}

// CreateTimesheet creates an empty OPEN timesheet for the week containing weekOf.
// POST /api/timesheets
func (h *Handler) CreateTimesheet(w http.ResponseWriter, r *http.Request) {
	var req CreateTimesheetRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "CreateTimesheet", err)
		return
	}
	weekOf, err := calendar.ParseDate(req.WeekOf)
	if err != nil {
		h.writeError(w, "CreateTimesheet", errors.NewInvalidInputError("weekOf", req.WeekOf, "must be a YYYY-MM-DD date"))
		return
	}

	ts, err := h.api.CreateTimesheet(r.Context(), req.EmployeeID, weekOf)
	if err != nil {
		h.writeError(w, "CreateTimesheet", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimesheetDTO(ts))
}

// SubmitTimesheet POST /api/timesheets/{id}/submit
func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "SubmitTimesheet", h.api.SubmitTimesheet)
}

// ApproveTimesheet records the approver from the body.
// POST /api/timesheets/{id}/approve
func (h *Handler) ApproveTimesheet(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "ApproveTimesheet", err)
		return
	}
	h.transition(w, r, "ApproveTimesheet", func(ctx context.Context, id int64) (*domain.Timesheet, error) {
		return h.api.ApproveTimesheet(ctx, id, req.Approver)
	})
}

// LockTimesheet POST /api/timesheets/{id}/lock
func (h *Handler) LockTimesheet(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "LockTimesheet", h.api.LockTimesheet)
}

// UnlockTimesheet POST /api/timesheets/{id}/unlock
func (h *Handler) UnlockTimesheet(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "UnlockTimesheet", h.api.UnlockTimesheet)
}

// ProcessTimesheet POST /api/timesheets/{id}/process
func (h *Handler) ProcessTimesheet(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "ProcessTimesheet", h.api.ProcessTimesheet)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, funcName string, fn func(context.Context, int64) (*domain.Timesheet, error)) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, funcName, err)
		return
	}
	ts, err := fn(r.Context(), id)
	if err != nil {
		h.writeError(w, funcName, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(ts))
}

// CreateEntry adds a locally authored entry to the timesheet in the path.
// POST /api/timesheets/{id}/entries
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, "CreateEntry", err)
		return
	}
	var req EntryRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "CreateEntry", err)
		return
	}
	req.TimesheetID = id

	entry, err := h.api.CreateEntry(r.Context(), req)
	if err != nil {
		h.writeError(w, "CreateEntry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// UpdateEntry changes the fields present in the body.
// PUT /api/entries/{id}
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, "UpdateEntry", err)
		return
	}
	var req EntryRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "UpdateEntry", err)
		return
	}

	entry, err := h.api.UpdateEntry(r.Context(), id, req)
	if err != nil {
		h.writeError(w, "UpdateEntry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// DeleteEntry DELETE /api/entries/{id}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, "DeleteEntry", err)
		return
	}
	if err := h.api.DeleteEntry(r.Context(), id); err != nil {
		h.writeError(w, "DeleteEntry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.NewInvalidInputError("id", raw, "must be a positive integer")
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewInvalidInputError("body", nil, "must be a JSON object")
	}
	return nil
}

func parseSyncLogFilter(r *http.Request) (domain.SyncLogFilter, error) {
	q := r.URL.Query()
	var filter domain.SyncLogFilter

	if v := q.Get("type"); v != "" {
		t := domain.SyncLogType(v)
		switch t {
		case domain.SyncLogTimesheetSync, domain.SyncLogEntryCleanup, domain.SyncLogTimesheetMerge, domain.SyncLogStatusRepair:
			filter.Type = &t
		default:
			return filter, errors.NewInvalidInputError("type", v, "unknown sync log type")
		}
	}
	if v := q.Get("status"); v != "" {
		s := domain.SyncRunStatus(v)
		switch s {
		case domain.SyncStatusSuccess, domain.SyncStatusPartial, domain.SyncStatusError:
			filter.Status = &s
		default:
			return filter, errors.NewInvalidInputError("status", v, "must be SUCCESS, PARTIAL or ERROR")
		}
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filter, errors.NewInvalidInputError("page", v, "must be a positive integer")
		}
		filter.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filter, errors.NewInvalidInputError("limit", v, "must be a positive integer")
		}
		filter.Limit = n
	}
	return filter.Normalize(), nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, funcName string, err error) {
	if errors.ShouldLogError(err) {
		logging.LogError(h.logger, "api", funcName, "request failed", nil, err)
	}
	resp := ErrorResponse{
		Error: userMessage(err),
		Code:  errors.GetErrorCode(err),
	}
	var fields *validation.ValidationError
	if stderrors.As(err, &fields) {
		resp.Fields = fields.Errors
	}
	writeJSON(w, statusFor(err), resp)
}

func userMessage(err error) string {
	var violations *validation.ViolationError
	if stderrors.As(err, &violations) {
		return violations.Error()
	}
	var fields *validation.ValidationError
	if stderrors.As(err, &fields) {
		return fields.GetUserFriendlyMessage()
	}
	return errors.GetUserMessage(err)
}

func statusFor(err error) int {
	if validation.IsValidationError(err) || validation.IsViolationError(err) {
		return http.StatusBadRequest
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation, errors.ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeConflict:
		return http.StatusConflict
	case errors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
