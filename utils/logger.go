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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const timestampFormat = "2006-01-02 15:04:05.000"

var (
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
	defaultLevel     = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info"))
	consoleLogFormat = EnvDefaultString("CONSOLE_LOG_FORMAT", "text")
	consoleOutput    io.Writer = os.Stdout
	fileLogFormat    = EnvDefaultString("FILE_LOG_FORMAT", "text")

	fileSinkMu sync.RWMutex
	fileSink   *dailyFileSink
)

func init() {
	if EnvDefaultBool("FILE_LOG_ENABLED", false) {
		_ = ConfigureFileLog(EnvDefaultString("FILE_LOG_DIR", "logs"), 7)
	}
}

// ConfigureConsoleLogFormat selects "json" or "text" for loggers created
// afterwards.
func ConfigureConsoleLogFormat(format string) {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		consoleLogFormat = "json"
	} else {
		consoleLogFormat = "text"
	}
}

// ConfigureConsoleOutput redirects loggers created afterwards.
func ConfigureConsoleOutput(w io.Writer) {
	if w != nil {
		consoleOutput = w
	}
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

// SetLoggerLevel changes the level of a named logger. It reports false when
// no logger is registered under name.
func SetLoggerLevel(name string, lvlStr string) bool {
	loggerRegistryMu.RLock()
	lg, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	lg.SetLevel(ParseLogLevel(lvlStr))
	return true
}

// ConfigureLogLevel sets the level of every registered logger and of
// loggers created afterwards.
func ConfigureLogLevel(levelStr string) {
	lvl := ParseLogLevel(levelStr)
	defaultLevel = lvl
	loggerRegistryMu.RLock()
	for _, lg := range loggerRegistry {
		lg.SetLevel(lvl)
	}
	loggerRegistryMu.RUnlock()
}

// NewLogger returns a named logrus logger writing to the console output.
// Creating a logger twice under the same name returns the first one.
func NewLogger(name string) *logrus.Logger {
	loggerRegistryMu.RLock()
	existing, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if ok {
		return existing
	}

	l := logrus.New()
	l.SetOutput(consoleOutput)
	l.SetLevel(defaultLevel)
	l.SetReportCaller(true)
	if consoleLogFormat == "json" {
		l.SetFormatter(&JSONLogFormatter{LoggerName: name})
	} else {
		l.SetFormatter(&Log4jColorFormatter{LoggerName: name, NameWidth: 10, Color: true})
	}
	l.AddHook(&levelWriterHook{
		text: &Log4jColorFormatter{LoggerName: name, NameWidth: 10},
		json: &JSONLogFormatter{LoggerName: name},
	})
	RegisterLogger(name, l)
	return l
}

// ConfigureFileLog makes every logger also write to dir/<yyyy-mm-dd>/<level>.log.
// Date directories older than maxAgeDays are removed when the date rolls
// over; a negative maxAgeDays keeps them all. An empty dir turns file
// logging off.
func ConfigureFileLog(dir string, maxAgeDays int) error {
	var sink *dailyFileSink
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		sink = newDailyFileSink(dir, maxAgeDays)
	}

	fileSinkMu.Lock()
	previous := fileSink
	fileSink = sink
	fileSinkMu.Unlock()

	if previous != nil {
		previous.Close()
	}
	return nil
}

// ConfigureFileLogFormat selects "json" or "text" for log files.
func ConfigureFileLogFormat(format string) {
	fileSinkMu.Lock()
	defer fileSinkMu.Unlock()
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		fileLogFormat = "json"
	} else {
		fileLogFormat = "text"
	}
}

// levelWriterHook copies entries to the active file sink, if any.
type levelWriterHook struct {
	text logrus.Formatter
	json logrus.Formatter
}

func (h *levelWriterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *levelWriterHook) Fire(e *logrus.Entry) error {
	fileSinkMu.RLock()
	sink, format := fileSink, fileLogFormat
	fileSinkMu.RUnlock()
	if sink == nil {
		return nil
	}

	formatter := h.text
	if format == "json" {
		formatter = h.json
	}
	b, err := formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = sink.writer(e.Level).Write(b)
	return err
}

type dailyFileSink struct {
	writers map[string]*dailyLevelWriter
}

func newDailyFileSink(dir string, maxAgeDays int) *dailyFileSink {
	sink := &dailyFileSink{writers: make(map[string]*dailyLevelWriter)}
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		sink.writers[level] = &dailyLevelWriter{baseDir: dir, level: level, maxAgeDays: maxAgeDays}
	}
	return sink
}

// writer maps fatal and panic entries to the error file.
func (s *dailyFileSink) writer(level logrus.Level) io.Writer {
	switch level {
	case logrus.TraceLevel:
		return s.writers["trace"]
	case logrus.DebugLevel:
		return s.writers["debug"]
	case logrus.InfoLevel:
		return s.writers["info"]
	case logrus.WarnLevel:
		return s.writers["warn"]
	}
	return s.writers["error"]
}

func (s *dailyFileSink) Close() {
	for _, w := range s.writers {
		w.Close()
	}
}

type dailyLevelWriter struct {
	baseDir    string
	level      string
	maxAgeDays int
	mu         sync.Mutex
	curDate    string
	file       *os.File
}

func (w *dailyLevelWriter) Write(p []byte) (int, error) {
	date := time.Now().Format(time.DateOnly)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil || w.curDate != date {
		if err := w.open(date); err != nil {
			return 0, err
		}
		w.cleanup()
	}
	return w.file.Write(p)
}

func (w *dailyLevelWriter) open(date string) error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	dir := filepath.Join(w.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, w.level+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file, w.curDate = f, date
	return nil
}

// cleanup removes date directories older than maxAgeDays.
func (w *dailyLevelWriter) cleanup() {
	if w.maxAgeDays < 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -w.maxAgeDays)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.Local)

	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := time.ParseInLocation(time.DateOnly, e.Name(), time.Local)
		if err != nil {
			continue
		}
		if d.Before(cutoff) {
			_ = os.RemoveAll(filepath.Join(w.baseDir, e.Name()))
		}
	}
}

func (w *dailyLevelWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
}

// Log4jColorFormatter renders "time LEVEL pid --- name file:line : msg k=v".
type Log4jColorFormatter struct {
	LoggerName string
	NameWidth  int
	Color      bool
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Time.Format(timestampFormat))
	b.WriteByte(' ')
	b.WriteString(f.paint(fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String())), levelColor(entry.Level)))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(os.Getpid()))
	b.WriteString(" --- ")
	b.WriteString(f.paint(fmt.Sprintf("%*s", f.NameWidth, limitRunes(f.LoggerName, f.NameWidth)), ansiCyan))
	if entry.Caller != nil {
		b.WriteByte(' ')
		b.WriteString(f.paint(fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line), ansiFaint))
	}
	b.WriteString(" : ")
	b.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (f *Log4jColorFormatter) paint(s, code string) string {
	if !f.Color {
		return s
	}
	return code + s + ansiReset
}

// JSONLogFormatter renders one JSON object per entry.
type JSONLogFormatter struct {
	LoggerName string
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	type jsonLogRecord struct {
		Time    string                 `json:"time"`
		Level   string                 `json:"level"`
		Logger  string                 `json:"logger"`
		Caller  string                 `json:"caller,omitempty"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields,omitempty"`
	}
	rec := jsonLogRecord{
		Time:    entry.Time.Format(timestampFormat),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			rec.Fields[k] = v
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

const (
	ansiReset   = "\x1b[0m"
	ansiFaint   = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

func levelColor(level logrus.Level) string {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return ansiRed
	case logrus.WarnLevel:
		return ansiYellow
	case logrus.InfoLevel:
		return ansiGreen
	case logrus.DebugLevel:
		return ansiBlue
	default:
		return ansiMagenta
	}
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func sortedKeys(m logrus.Fields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}

func EnvDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}
