package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = prev })
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrintRows(t *testing.T) {
	withColor(t, false)

	var buf bytes.Buffer
	require.NoError(t, printRows(&buf, nil))
	assert.Equal(t, "No notifications\n", buf.String())

	buf.Reset()
	rows := []models.Notification{
		{ID: 2, Message: "Ada liked your article", CreatedAt: time.Now()},
		{ID: 10, Message: "old news", IsRead: true, CreatedAt: time.Now()},
	}
	require.NoError(t, printRows(&buf, rows))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, []string{"*", "2"}, strings.Fields(lines[0])[:2])
	assert.Equal(t, "10", strings.Fields(lines[1])[0])
	assert.Equal(t, strings.Index(lines[0], "Ada"), strings.Index(lines[1], "old news"), "message column aligned")
}

func TestPrintRowsColoursUnreadMarker(t *testing.T) {
	withColor(t, true)

	var buf bytes.Buffer
	require.NoError(t, printRows(&buf, []models.Notification{
		{ID: 1, Message: "new", CreatedAt: time.Now()},
		{ID: 2, Message: "seen", IsRead: true, CreatedAt: time.Now()},
	}))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "\x1b[33m*")
	assert.NotContains(t, lines[1], "\x1b[33m")
	assert.Equal(t, strings.Index(lines[0], "new"), strings.Index(lines[1], "seen"))
}

func TestReadPasswordPrefersEnv(t *testing.T) {
	t.Setenv("INKWELL_PASSWORD", "from-env")

	var prompt bytes.Buffer
	got, err := readPassword(strings.NewReader("typed\n"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
	assert.Empty(t, prompt.String())
}

func TestReadPasswordFromPipe(t *testing.T) {
	t.Setenv("INKWELL_PASSWORD", "")

	var prompt bytes.Buffer
	got, err := readPassword(strings.NewReader("s3cret \n"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, "Password: ", prompt.String())

	_, err = readPassword(strings.NewReader(""), &prompt)
	assert.Error(t, err)
}

func TestLoadSettingsFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("INKWELL_API", "https://api.example")
	t.Setenv("INKWELL_SESSION", path)

	require.NoError(t, loadSettings())
	assert.Equal(t, "https://api.example", apiURL)
	assert.Equal(t, path, sessionPath)
}

func TestLoadSettingsFlagBeatsEnv(t *testing.T) {
	t.Setenv("INKWELL_API", "https://env.example")
	flag := rootCmd.PersistentFlags().Lookup("api")
	require.NoError(t, flag.Value.Set("https://flag.example"))
	flag.Changed = true
	t.Cleanup(func() {
		_ = flag.Value.Set(defaultAPI)
		flag.Changed = false
	})

	require.NoError(t, loadSettings())
	assert.Equal(t, "https://flag.example", apiURL)
}
