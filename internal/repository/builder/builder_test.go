package builder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLBuilder(t *testing.T) {
	testCases := map[string]struct {
		build    func() *SQLBuilder
		wantSQL  string
		wantArgs []interface{}
	}{
		"select": {
			build: func() *SQLBuilder {
				return NewSQLBuilder().Select("id", "name").From("employees").Where("id = ?", "e1")
			},
			wantSQL:  "SELECT id, name FROM employees WHERE id = $1",
			wantArgs: []interface{}{"e1"},
		},
		"insert": {
			build: func() *SQLBuilder {
				return NewSQLBuilder().Insert("projects", "id", "name").Values("p1", "Atlas")
			},
			wantSQL:  "INSERT INTO projects (id, name) VALUES ($1, $2)",
			wantArgs: []interface{}{"p1", "Atlas"},
		},
		"multi-row insert with conflict skip": {
			build: func() *SQLBuilder {
				return NewSQLBuilder().Insert("projects", "id", "name").
					Values("p1", "Atlas").
					Values("p2", "Borealis").
					OnConflictDoNothing("id")
			},
			wantSQL:  "INSERT INTO projects (id, name) VALUES ($1, $2), ($3, $4) ON CONFLICT (id) DO NOTHING",
			wantArgs: []interface{}{"p1", "Atlas", "p2", "Borealis"},
		},
		"update with returning": {
			build: func() *SQLBuilder {
				return NewSQLBuilder().Update("timesheets").
					Set("status", "submitted").
					Set("total_hours", "16.00").
					Where("id = ?", "ts1").
					Where("deleted_at IS NULL").
					Returning("updated_at")
			},
			wantSQL:  "UPDATE timesheets SET status = $1, total_hours = $2 WHERE id = $3 AND deleted_at IS NULL RETURNING updated_at",
			wantArgs: []interface{}{"submitted", "16.00", "ts1"},
		},
		"delete": {
			build: func() *SQLBuilder {
				return NewSQLBuilder().Delete("timesheet_rows").Where("timesheet_id = ?", "ts1")
			},
			wantSQL:  "DELETE FROM timesheet_rows WHERE timesheet_id = $1",
			wantArgs: []interface{}{"ts1"},
		},
		"select for update": {
			build: func() *SQLBuilder {
				return NewSQLBuilder().Select("id").From("timesheets").Where("id = ?", "ts1").ForUpdate()
			},
			wantSQL:  "SELECT id FROM timesheets WHERE id = $1 FOR UPDATE",
			wantArgs: []interface{}{"ts1"},
		},
		"where in": {
			build: func() *SQLBuilder {
				return NewSQLBuilder().Select("id").From("timesheets").
					WhereIn("employee_id", "e1", "e2").
					Where("status = ?", "submitted").
					OrderBy("week_start DESC").
					Limit(10).
					Offset(20)
			},
			wantSQL:  "SELECT id FROM timesheets WHERE employee_id IN ($1, $2) AND status = $3 ORDER BY week_start DESC LIMIT 10 OFFSET 20",
			wantArgs: []interface{}{"e1", "e2", "submitted"},
		},
		"empty where in matches nothing": {
			build: func() *SQLBuilder {
				return NewSQLBuilder().Select("id").From("timesheets").WhereIn("employee_id")
			},
			wantSQL: "SELECT id FROM timesheets WHERE 1 = 0",
		},
		"quoted question mark is left alone": {
			build: func() *SQLBuilder {
				return NewSQLBuilder().Select("id").From("projects").Where("name <> '?'").Where("client = ?", "acme")
			},
			wantSQL:  "SELECT id FROM projects WHERE name <> '?' AND client = $1",
			wantArgs: []interface{}{"acme"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			sql, args := tc.build().Build()
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestSQLBuilderConditions(t *testing.T) {
	t.Run("or conditions", func(t *testing.T) {
		sql, args := NewSQLBuilder().Select("id").
			From("employees").
			Where("department = ?", "eng").
			Or("department = ?", "ops").
			Build()

		assert.Equal(t, "SELECT id FROM employees WHERE department = $1 OR department = $2", sql)
		assert.Len(t, args, 2)
	})

	t.Run("group numbers placeholders in order", func(t *testing.T) {
		from := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
		sql, args := NewSQLBuilder().Select("t.id").
			From("timesheets t").
			Join("INNER", "employees e", "e.id = t.employee_id").
			Where("e.reporting_manager_id = ?", "m1").
			WhereGroup(func(g *SQLBuilder) *SQLBuilder {
				return g.Where("t.status = ?", "submitted").Or("t.week_start >= ?", from)
			}).
			Build()

		assert.Equal(t,
			"SELECT t.id FROM timesheets t INNER JOIN employees e ON e.id = t.employee_id WHERE e.reporting_manager_id = $1 AND (t.status = $2 OR t.week_start >= $3)",
			sql)
		assert.Equal(t, []interface{}{"m1", "submitted", from}, args)
	})

	t.Run("empty group is ignored", func(t *testing.T) {
		sql, _ := NewSQLBuilder().Select("id").From("employees").
			WhereGroup(func(g *SQLBuilder) *SQLBuilder { return g }).
			Build()
		assert.Equal(t, "SELECT id FROM employees", sql)
	})

	t.Run("build is repeatable", func(t *testing.T) {
		b := NewSQLBuilder().Update("employees").Set("is_active", false).Where("id = ?", "e1")
		sql1, args1 := b.Build()
		sql2, args2 := b.Build()
		assert.Equal(t, sql1, sql2)
		assert.Equal(t, args1, args2)
	})
}

func TestBuildSafe(t *testing.T) {
	t.Run("valid query", func(t *testing.T) {
		sql, args, err := NewSQLBuilder().Select("*").
			From("employees").
			Where("id = ?", "e1").
			Where("is_active = ?", true).
			BuildSafe()
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM employees WHERE id = $1 AND is_active = $2", sql)
		assert.Len(t, args, 2)
	})

	t.Run("placeholder mismatch", func(t *testing.T) {
		_, _, err := NewSQLBuilder().Select("*").From("employees").Where("id = ? OR email = ?", "e1").BuildSafe()
		assert.Error(t, err)
	})

	t.Run("row width mismatch", func(t *testing.T) {
		_, _, err := NewSQLBuilder().Insert("projects", "id", "name").Values("p1").BuildSafe()
		assert.Error(t, err)
	})

	t.Run("missing table", func(t *testing.T) {
		_, _, err := NewSQLBuilder().Select("1").BuildSafe()
		assert.Error(t, err)
	})
}
