package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config without a backend so commands read the demo
// workspace.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "listen: 127.0.0.1:0\n" +
		"timezone: UTC\n" +
		"data_dir: " + dir + "\n" +
		"store:\n  driver: \"\"\n" +
		"log_level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	color.NoColor = true
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestGridPrintsDemoMonth(t *testing.T) {
	cfg := writeConfig(t)
	out := run(t, "grid", "--config", cfg, "--date", "2025-10-15", "--no-color")

	assert.Contains(t, out, "October 2025 (demo data)")
	assert.Contains(t, out, "Sun")
	assert.Contains(t, out, "15 •")
	assert.Contains(t, out, "Wed Oct 15")
	assert.Contains(t, out, "11:00")
	assert.Contains(t, out, "instagram,facebook,linkedin")
	assert.Contains(t, out, "pending")
}

func TestGridDayView(t *testing.T) {
	cfg := writeConfig(t)
	out := run(t, "grid", "--config", cfg, "--mode", "day", "--date", "2025-10-15", "--nav", "next")

	assert.Contains(t, out, "October 16, 2025")
	assert.Contains(t, out, "14:30")
}

func TestGridRejectsBadMode(t *testing.T) {
	cfg := writeConfig(t)
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"grid", "--config", cfg, "--mode", "year"})
	assert.Error(t, cmd.Execute())
}

func TestBulkDryRunWritesPlan(t *testing.T) {
	cfg := writeConfig(t)
	dir := t.TempDir()
	queue := filepath.Join(dir, "queue.csv")
	rows := "caption,date,time,platforms,type\n" +
		"First,,,instagram,post\n" +
		"Second,,,instagram,post\n" +
		"Third,,,instagram,campaign\n" +
		"Fourth,,,instagram,post\n" +
		"Pinned,2025-11-05,10:30,linkedin,post\n"
	require.NoError(t, os.WriteFile(queue, []byte(rows), 0o600))
	planOut := filepath.Join(dir, "plan.csv")

	out := run(t, "bulk", "--config", cfg, "--csv", queue,
		"--start", "2025-11-03", "--end", "2025-11-03", "--out", planOut)

	assert.Contains(t, out, "4 scheduled, 1 did not fit the date range")
	assert.Contains(t, out, "Mon Nov 3")
	assert.Contains(t, out, "17:00")
	assert.NotContains(t, out, "stored")

	b, err := os.ReadFile(planOut)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "caption,date,time,platforms,type", lines[0])
	assert.Equal(t, "First,2025-11-03,09:00,instagram,post", lines[1])
}

func TestExportICS(t *testing.T) {
	cfg := writeConfig(t)
	out := run(t, "export-ics", "--config", cfg)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "UID:demo-event-1@socialsync")
}

func TestImportICSFile(t *testing.T) {
	cfg := writeConfig(t)
	feed := filepath.Join(t.TempDir(), "feed.ics")
	body := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
		"BEGIN:VEVENT\r\nUID:launch-1\r\nDTSTART:20251101T150000Z\r\nSUMMARY:Launch recap\r\nEND:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
	require.NoError(t, os.WriteFile(feed, []byte(body), 0o600))

	out := run(t, "import-ics", feed, "--config", cfg, "--platforms", "linkedin")
	assert.Contains(t, out, "imported 1 events")
}
