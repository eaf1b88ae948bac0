package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	year, m, err := parseMonth("2025-02")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.February, m)

	for _, bad := range []string{"2025", "2025-13", "abcd-01", "2025-00", "2025-1-1"} {
		_, _, err := parseMonth(bad)
		assert.Error(t, err, bad)
	}

	year, _, err = parseMonth("")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Year(), year)
}

func TestWeeksCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"weeks", "2025-12"})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "1  Mon 2025-12-01 - Sat 2025-12-06  (6 days)", lines[0])
	assert.Equal(t, "5  Sun 2025-12-28 - Wed 2025-12-31  (4 days)", lines[4])
}

func TestWeeksCommandRejectsBadMonth(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"weeks", "2025-13"})
	assert.Error(t, cmd.Execute())
}

func TestClearCancelled(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("no\n"))
	cmd.SetArgs([]string{"clear"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Cancelled.")
}
