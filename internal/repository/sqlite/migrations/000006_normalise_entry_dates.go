package migrations

import (
	"database/sql"
	"fmt"

	"timesheet-admin/internal/calendar"
)

func init() {
	RegisterGoMigration(6, Up_000006_normalise_entry_dates, Down_000006_normalise_entry_dates)
}

// Up_000006_normalise_entry_dates rewrites entry dates stored as timestamps
// (for example "2024-01-07T23:00:00Z" written by a client in UTC+1) to plain
// calendar dates, snapping late-evening UTC values forward to the local day.
// Timesheet week_starting values are left alone: the duplicate-timesheet merge
// pass owns those because normalising them could collide on the unique index.
func Up_000006_normalise_entry_dates(tx *sql.Tx) error {
	type entry struct {
		id   int64
		date string
	}
	var entries []entry

	rows, err := tx.Query("SELECT id, date FROM timesheet_entries WHERE length(date) > 10")
	if err != nil {
		return fmt.Errorf("failed to query entry dates: %w", err)
	}
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.date); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan entry date: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating entry dates: %w", err)
	}
	rows.Close()

	stmt, err := tx.Prepare("UPDATE timesheet_entries SET date = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare date update statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		d, err := calendar.ParseStoredDate(e.date)
		if err != nil {
			return fmt.Errorf("could not parse date for entry %d: %w", e.id, err)
		}
		if _, err := stmt.Exec(calendar.FormatDate(d), e.id); err != nil {
			return fmt.Errorf("failed to update date for entry %d: %w", e.id, err)
		}
	}

	return nil
}

// Down_000006_normalise_entry_dates is a no-op; plain dates are valid in every schema version.
func Down_000006_normalise_entry_dates(tx *sql.Tx) error {
	return nil
}
