package sqlite

import (
	"context"

	"timesheet-admin/internal/domain"
)

// CreateEmployee creates a new employee together with any identifiers it carries
func (r *SQLiteRepository) CreateEmployee(ctx context.Context, employee *domain.Employee) error {
	query := `
	INSERT INTO employees (first_name, last_name, email, morning_start, morning_end,
		afternoon_start, afternoon_end, max_daily_hours, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := r.now()
	id, err := ExecuteWithLastInsertID(ctx, r.q, query,
		employee.FirstName, employee.LastName, employee.Email,
		FormatClockPtrForDB(employee.MorningStart), FormatClockPtrForDB(employee.MorningEnd),
		FormatClockPtrForDB(employee.AfternoonStart), FormatClockPtrForDB(employee.AfternoonEnd),
		FormatDecimalPtrForDB(employee.MaxDailyHours), FormatTimeForDB(now))
	if err != nil {
		return err
	}
	employee.ID = id
	employee.CreatedAt = now

	for i := range employee.Identifiers {
		employee.Identifiers[i].EmployeeID = id
		if err := r.AddExternalIdentifier(ctx, &employee.Identifiers[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetEmployee retrieves an employee and its identifiers by ID
func (r *SQLiteRepository) GetEmployee(ctx context.Context, id int64) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`

	employee, err := QuerySingle(ctx, r.q, query, ScanEmployee, "employee", idString(id), id)
	if err != nil {
		return nil, err
	}
	if employee.Identifiers, err = r.ListExternalIdentifiers(ctx, id); err != nil {
		return nil, err
	}
	return employee, nil
}

// ListEmployees retrieves all employees ordered by ID
func (r *SQLiteRepository) ListEmployees(ctx context.Context) ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY id ASC`

	employees, err := QueryMultiple(ctx, r.q, query, ScanEmployees, "employees")
	if err != nil {
		return nil, err
	}
	return employees, r.attachIdentifiers(ctx, employees)
}

// ListEmployeesWithIdentifier retrieves employees holding an identifier of the given type
func (r *SQLiteRepository) ListEmployeesWithIdentifier(ctx context.Context, idType string) ([]*domain.Employee, error) {
	query := `
	SELECT ` + employeeColumns + `
	FROM employees
	WHERE id IN (SELECT employee_id FROM external_identifiers WHERE id_type = ? AND value != '')
	ORDER BY id ASC`

	employees, err := QueryMultiple(ctx, r.q, query, ScanEmployees, "employees", idType)
	if err != nil {
		return nil, err
	}
	return employees, r.attachIdentifiers(ctx, employees)
}

func (r *SQLiteRepository) attachIdentifiers(ctx context.Context, employees []*domain.Employee) error {
	for _, e := range employees {
		ids, err := r.ListExternalIdentifiers(ctx, e.ID)
		if err != nil {
			return err
		}
		e.Identifiers = ids
	}
	return nil
}

// AddExternalIdentifier attaches a typed identifier to an employee
func (r *SQLiteRepository) AddExternalIdentifier(ctx context.Context, identifier *domain.ExternalIdentifier) error {
	query := `
	INSERT INTO external_identifiers (employee_id, id_type, value, company_id)
	VALUES (?, ?, ?, ?)`

	id, err := ExecuteWithLastInsertID(ctx, r.q, query,
		identifier.EmployeeID, identifier.Type, identifier.Value, NullableInt64(identifier.CompanyID))
	if err != nil {
		return err
	}
	identifier.ID = id
	return nil
}

// ListExternalIdentifiers retrieves all identifiers for an employee
func (r *SQLiteRepository) ListExternalIdentifiers(ctx context.Context, employeeID int64) ([]domain.ExternalIdentifier, error) {
	query := `
	SELECT id, employee_id, id_type, value, company_id
	FROM external_identifiers
	WHERE employee_id = ?
	ORDER BY id ASC`

	rows, err := QueryMultiple(ctx, r.q, query, ScanExternalIdentifiers, "external identifiers", employeeID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ExternalIdentifier, 0, len(rows))
	for _, id := range rows {
		out = append(out, *id)
	}
	return out, nil
}

// CreateCompany creates a new company
func (r *SQLiteRepository) CreateCompany(ctx context.Context, company *domain.Company) error {
	id, err := ExecuteWithLastInsertID(ctx, r.q, `INSERT INTO companies (name) VALUES (?)`, company.Name)
	if err != nil {
		return err
	}
	company.ID = id
	return nil
}

// CreateRole creates a new role
func (r *SQLiteRepository) CreateRole(ctx context.Context, role *domain.Role) error {
	id, err := ExecuteWithLastInsertID(ctx, r.q, `INSERT INTO roles (name) VALUES (?)`, role.Name)
	if err != nil {
		return err
	}
	role.ID = id
	return nil
}

// CreateRoleAssignment links an employee to a role at a company
func (r *SQLiteRepository) CreateRoleAssignment(ctx context.Context, assignment *domain.RoleAssignment) error {
	query := `
	INSERT INTO role_assignments (employee_id, role_id, company_id, active)
	VALUES (?, ?, ?, ?)`

	id, err := ExecuteWithLastInsertID(ctx, r.q, query,
		assignment.EmployeeID, assignment.RoleID, assignment.CompanyID, assignment.Active)
	if err != nil {
		return err
	}
	assignment.ID = id
	return nil
}

// ListActiveRoleAssignments retrieves an employee's active assignments ordered by ID
func (r *SQLiteRepository) ListActiveRoleAssignments(ctx context.Context, employeeID int64) ([]domain.RoleAssignment, error) {
	query := `
	SELECT ra.id, ra.employee_id, ra.role_id, ro.name, ra.company_id, c.name, ra.active
	FROM role_assignments ra
	JOIN roles ro ON ro.id = ra.role_id
	JOIN companies c ON c.id = ra.company_id
	WHERE ra.employee_id = ? AND ra.active = 1
	ORDER BY ra.id ASC`

	rows, err := QueryMultiple(ctx, r.q, query, ScanRoleAssignments, "role assignments", employeeID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoleAssignment, 0, len(rows))
	for _, a := range rows {
		out = append(out, *a)
	}
	return out, nil
}
