package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "timesheet-admin/internal/errors"
)

// MockResult implements sql.Result for testing
type MockResult struct {
	lastInsertID int64
	rowsAffected int64
	insertErr    error
	rowsErr      error
}

func (mr *MockResult) LastInsertId() (int64, error) {
	return mr.lastInsertID, mr.insertErr
}

func (mr *MockResult) RowsAffected() (int64, error) {
	return mr.rowsAffected, mr.rowsErr
}

func TestHandleDatabaseError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	result := HandleDatabaseError("test operation", originalErr)

	assert.NotNil(t, result)
	assert.Contains(t, result.Error(), "test operation")
	assert.Contains(t, result.Error(), "database connection failed")
	assert.True(t, apperrors.IsErrorType(result, apperrors.ErrorTypeDatabase))
}

func TestHandleNoRowsError(t *testing.T) {
	tests := []struct {
		name           string
		inputErr       error
		expectNotFound bool
	}{
		{name: "should convert ErrNoRows to not found", inputErr: sql.ErrNoRows, expectNotFound: true},
		{name: "should return other errors as-is", inputErr: errors.New("some other error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HandleNoRowsError(tt.inputErr, "timesheet", "123")

			if tt.expectNotFound {
				assert.True(t, apperrors.IsErrorType(result, apperrors.ErrorTypeNotFound))
				assert.Contains(t, result.Error(), "timesheet")
				assert.Contains(t, result.Error(), "123")
			} else {
				assert.Equal(t, tt.inputErr, result)
			}
		})
	}
}

func TestValidateRowsAffected(t *testing.T) {
	tests := []struct {
		name           string
		result         sql.Result
		expectError    bool
		expectNotFound bool
	}{
		{name: "should accept an affected row", result: &MockResult{rowsAffected: 1}},
		{name: "should report not found with no rows", result: &MockResult{}, expectError: true, expectNotFound: true},
		{name: "should surface driver errors", result: &MockResult{rowsErr: errors.New("database error")}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRowsAffected(tt.result, "timesheet entry", "123")

			if !tt.expectError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.expectNotFound {
				assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
			} else {
				assert.Contains(t, err.Error(), "database error")
			}
		})
	}
}

func TestQuerySingle_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := QuerySingle(context.Background(), repo.db, `SELECT `+syncLogColumns+` FROM sync_logs WHERE id = ?`, ScanSyncLog, "sync log", "42", 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestExecuteCount(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Acme", "Harbour"} {
		_, err := ExecuteWithLastInsertID(ctx, repo.db, `INSERT INTO companies (name) VALUES (?)`, name)
		require.NoError(t, err)
	}

	n, err := ExecuteCount(ctx, repo.db, `UPDATE companies SET name = name || '!'`)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
