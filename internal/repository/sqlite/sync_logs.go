package sqlite

import (
	"context"
	"encoding/json"
	"strings"

	"timesheet-admin/internal/domain"
)

// CreateSyncLog appends a sync log record
func (r *SQLiteRepository) CreateSyncLog(ctx context.Context, log *domain.SyncLog) error {
	query := `
	INSERT INTO sync_logs (run_id, log_type, status, processed, created, updated, skipped,
		details, errors, started_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	errs := log.Errors
	if errs == nil {
		errs = []string{}
	}
	encoded, err := json.Marshal(errs)
	if err != nil {
		return HandleDatabaseError("encode sync log errors", err)
	}

	id, err := ExecuteWithLastInsertID(ctx, r.q, query,
		log.RunID, string(log.Type), string(log.Status),
		log.Processed, log.Created, log.Updated, log.Skipped,
		log.Details, string(encoded), FormatTimeForDB(log.StartedAt), FormatTimeForDB(log.CompletedAt))
	if err != nil {
		return err
	}
	log.ID = id
	return nil
}

// ListSyncLogs retrieves a page of sync logs, newest first, with the total match count
func (r *SQLiteRepository) ListSyncLogs(ctx context.Context, filter domain.SyncLogFilter) ([]*domain.SyncLog, int, error) {
	filter = filter.Normalize()

	var conditions []string
	var args []interface{}
	if filter.Type != nil {
		conditions = append(conditions, "log_type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, HandleDatabaseError("count sync logs", err)
	}

	query := `SELECT ` + syncLogColumns + ` FROM sync_logs` + where + `
	ORDER BY started_at DESC, id DESC
	LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset())

	logs, err := QueryMultiple(ctx, r.q, query, ScanSyncLogs, "sync logs", args...)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
