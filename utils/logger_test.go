/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(msg string, fields logrus.Fields) *logrus.Entry {
	entry := logrus.NewEntry(logrus.New())
	entry.Time = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	entry.Level = logrus.WarnLevel
	entry.Message = msg
	entry.Data = fields
	return entry
}

func TestLog4jColorFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "DATABASE", NameWidth: 10}
	out, err := f.Format(newEntry("slow query", logrus.Fields{"query": "SELECT 1", "duration": "2s"}))
	require.NoError(t, err)

	line := string(out)
	assert.True(t, strings.HasPrefix(line, "2025-01-02 03:04:05.000 "))
	assert.Contains(t, line, "WARNING")
	assert.Contains(t, line, "  DATABASE : slow query")
	assert.True(t, strings.HasSuffix(line, " duration=2s query=SELECT 1\n"))
	assert.NotContains(t, line, "\x1b[")
}

func TestLog4jColorFormatterTruncatesName(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "REPOSITORY-LAYER", NameWidth: 4, Color: true}
	out, err := f.Format(newEntry("msg", nil))
	require.NoError(t, err)
	assert.Contains(t, string(out), ansiCyan+"REPO"+ansiReset)
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "DATABASE"}
	out, err := f.Format(newEntry("failed", logrus.Fields{"error": errors.New("boom"), "rows": 2}))
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "DATABASE", rec["logger"])
	assert.Equal(t, "failed", rec["message"])
	fields := rec["fields"].(map[string]interface{})
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, float64(2), fields["rows"])
}

func TestNewLoggerIsRegistered(t *testing.T) {
	var buf bytes.Buffer
	ConfigureConsoleOutput(&buf)
	name := "test-" + uuid.NewString()

	l := NewLogger(name)
	assert.Same(t, l, NewLogger(name))

	assert.True(t, SetLoggerLevel(name, "error"))
	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("missing-"+name, "debug"))

	l.Info("hidden")
	l.Error("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("REPOKIT_TEST_STRING", "value")
	t.Setenv("REPOKIT_TEST_BOOL", "true")
	t.Setenv("REPOKIT_TEST_BAD_BOOL", "maybe")
	t.Setenv("REPOKIT_TEST_DURATION", "1500ms")
	t.Setenv("REPOKIT_TEST_SECONDS", "30")

	assert.Equal(t, "value", EnvDefaultString("REPOKIT_TEST_STRING", "def"))
	assert.Equal(t, "def", EnvDefaultString("REPOKIT_TEST_UNSET", "def"))
	assert.True(t, EnvDefaultBool("REPOKIT_TEST_BOOL", false))
	assert.True(t, EnvDefaultBool("REPOKIT_TEST_BAD_BOOL", true))
	assert.Equal(t, 1500*time.Millisecond, EnvDefaultDuration("REPOKIT_TEST_DURATION", 0))
	assert.Equal(t, 30*time.Second, EnvDefaultDuration("REPOKIT_TEST_SECONDS", 0))
	assert.Equal(t, time.Minute, EnvDefaultDuration("REPOKIT_TEST_UNSET", time.Minute))
}

func TestFileLogCanBeTurnedOff(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ConfigureFileLog(dir, -1))
	t.Cleanup(func() { _ = ConfigureFileLog("", 0) })

	var buf bytes.Buffer
	ConfigureConsoleOutput(&buf)
	l := NewLogger("file-" + uuid.NewString())
	l.Info("kept")
	require.NoError(t, ConfigureFileLog("", 0))
	l.Info("dropped")

	content, err := os.ReadFile(filepath.Join(dir, time.Now().Format(time.DateOnly), "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "kept")
	assert.NotContains(t, string(content), "dropped")
	assert.NotContains(t, string(content), "\x1b[")
	assert.Contains(t, buf.String(), "dropped")
}
