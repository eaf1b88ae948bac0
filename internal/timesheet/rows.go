package timesheet

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/locvowork/hrms/internal/domain"
)

const maxTaskDescription = 255

// ValidateRows checks a complete row set: it must be non-empty, every row
// must name a project and a task, every cell must be a valid quantity, a
// (project, task_description) pair may appear only once, and no day may add
// up to more than HoursInDay.
func ValidateRows(rows []domain.TimesheetRow) error {
	if len(rows) == 0 {
		return &domain.ValidationError{Field: "rows", Message: "at least one row is required"}
	}

	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		prefix := fmt.Sprintf("rows[%d]", i)
		if strings.TrimSpace(row.ProjectID) == "" {
			return &domain.ValidationError{Field: prefix + ".project_id", Message: "project is required"}
		}

		task := strings.TrimSpace(row.TaskDescription)
		if task == "" {
			return &domain.ValidationError{Field: prefix + ".task_description", Message: "task description is required"}
		}
		if utf8.RuneCountInString(task) > maxTaskDescription {
			return &domain.ValidationError{
				Field:   prefix + ".task_description",
				Message: fmt.Sprintf("task description exceeds %d characters", maxTaskDescription),
			}
		}

		for day := time.Sunday; day <= time.Saturday; day++ {
			field := fmt.Sprintf("%s.%s", prefix, strings.ToLower(day.String()))
			if err := checkCell(field, row.Hours[day]); err != nil {
				return err
			}
		}

		key := rowKey(row.ProjectID, task)
		if first, dup := seen[key]; dup {
			return &domain.ValidationError{
				Field: prefix,
				Message: fmt.Sprintf("duplicate of rows[%d]: project %s with task %q is already on this timesheet",
					first, strings.TrimSpace(row.ProjectID), task),
			}
		}
		seen[key] = i
	}
	return checkDayLengths(rows)
}

func rowKey(projectID, task string) string {
	return strings.TrimSpace(projectID) + "\x00" + strings.TrimSpace(task)
}

// normalizeRows trims identifiers and task text and fills zero cells so the
// stored rows compare cleanly.
func normalizeRows(rows []domain.TimesheetRow) []domain.TimesheetRow {
	out := make([]domain.TimesheetRow, len(rows))
	for i, row := range rows {
		row.ProjectID = strings.TrimSpace(row.ProjectID)
		row.TaskDescription = strings.TrimSpace(row.TaskDescription)
		for day := range row.Hours {
			row.Hours[day] = row.Hours[day].Round(hoursPlaces)
		}
		out[i] = row
	}
	return out
}
