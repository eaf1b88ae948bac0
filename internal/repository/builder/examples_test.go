package builder_test

import (
	"fmt"

	"github.com/locvowork/hrms/internal/repository/builder"
)

func Example_teamQueue() {
	sql, args := builder.NewSQLBuilder().
		Select("t.id", "t.week_start").
		From("timesheets t").
		Join("INNER", "employees e", "e.id = t.employee_id").
		Where("e.reporting_manager_id = ?", "emp-manager").
		Where("t.status = ?", "submitted").
		Where("t.deleted_at IS NULL").
		OrderBy("t.week_start").
		Build()

	fmt.Println("SQL:", sql)
	fmt.Printf("Args: %v\n", args)

	// Output:
	// SQL: SELECT t.id, t.week_start FROM timesheets t INNER JOIN employees e ON e.id = t.employee_id WHERE e.reporting_manager_id = $1 AND t.status = $2 AND t.deleted_at IS NULL ORDER BY t.week_start
	// Args: [emp-manager submitted]
}

func Example_lockForTransition() {
	sql, args := builder.NewSQLBuilder().
		Select("id", "status").
		From("timesheets").
		Where("id = ?", "ts-1").
		Where("deleted_at IS NULL").
		ForUpdate().
		Build()

	fmt.Println("SQL:", sql)
	fmt.Printf("Args: %v\n", args)

	// Output:
	// SQL: SELECT id, status FROM timesheets WHERE id = $1 AND deleted_at IS NULL FOR UPDATE
	// Args: [ts-1]
}

func Example_insertRows() {
	sql, args := builder.NewSQLBuilder().
		Insert("timesheet_rows", "id", "timesheet_id", "task_description").
		Values("r1", "ts-1", "build").
		Values("r2", "ts-1", "review").
		Build()

	fmt.Println("SQL:", sql)
	fmt.Printf("Args: %v\n", args)

	// Output:
	// SQL: INSERT INTO timesheet_rows (id, timesheet_id, task_description) VALUES ($1, $2, $3), ($4, $5, $6)
	// Args: [r1 ts-1 build r2 ts-1 review]
}
