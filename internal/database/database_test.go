package database

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5433, User: "hr", Password: "secret", DBName: "hrms"}
	assert.Equal(t, "host=db port=5433 user=hr password=secret dbname=hrms sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestNewTimesheetDoc(t *testing.T) {
	ts := domain.Timesheet{
		ID:         "ts-1",
		EmployeeID: "emp-1",
		WeekStart:  time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC),
		WeekEnd:    time.Date(2025, time.December, 6, 0, 0, 0, 0, time.UTC),
		Status:     domain.TimesheetSubmitted,
		TotalHours: decimal.RequireFromString("12.5"),
		Rows: []domain.TimesheetRow{
			{ProjectID: "p1", TaskDescription: "build"},
			{ProjectID: "p1", TaskDescription: "review"},
			{ProjectID: "p2", TaskDescription: "support"},
		},
	}

	doc := NewTimesheetDoc(ts)
	assert.Equal(t, "2025-12-01", doc.WeekStart)
	assert.Equal(t, "2025-12-06", doc.WeekEnd)
	assert.Equal(t, "submitted", doc.Status)
	assert.Equal(t, 12.5, doc.TotalHours)
	assert.Equal(t, []string{"p1", "p2"}, doc.ProjectIDs)
	assert.Equal(t, []string{"build", "review", "support"}, doc.Tasks)
}

func TestToAuditRecord(t *testing.T) {
	at := time.Date(2025, time.December, 8, 10, 0, 0, 0, time.UTC)
	rec, err := toAuditRecord(domain.AuditEntry{
		ID:        "a-1",
		ActorID:   "emp-1",
		Action:    "submit",
		Entity:    "timesheet",
		EntityID:  "ts-1",
		Metadata:  map[string]interface{}{"total_hours": "16.00"},
		Timestamp: at,
	})
	require.NoError(t, err)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(rec.Metadata), &meta))
	assert.Equal(t, "16.00", meta["total_hours"])
	assert.Equal(t, at, rec.Timestamp)

	rec, err = toAuditRecord(domain.AuditEntry{ID: "a-2"})
	require.NoError(t, err)
	assert.Equal(t, "{}", rec.Metadata)
}
