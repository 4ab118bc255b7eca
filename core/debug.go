package core

import (
	"strings"
	"sync/atomic"
)

// Level is the severity of a diagnostic record.
type Level uint8

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
	numLevels
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	}
	return "LEVEL" + Itoa(int(l))
}

// ParseLevel maps a level name (as printed by String, any case) to a Level.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "error":
		return LevelError, true
	case "warn", "warning":
		return LevelWarn, true
	case "info":
		return LevelInfo, true
	case "debug":
		return LevelDebug, true
	case "trace":
		return LevelTrace, true
	}
	return 0, false
}

// LogRecord is one diagnostic message.
type LogRecord struct {
	Level     Level
	Timestamp uint64 // microseconds since boot, zero without a clock
	Message   string
}

// LogWriter receives diagnostic records. Platforms redirect it to a UART,
// USB or the test harness.
type LogWriter func(LogRecord)

const logQueueSize = 16

var (
	logWriter atomic.Pointer[LogWriter]
	logClock  atomic.Pointer[func() uint64]
	logLevel  atomic.Uint32
	logCounts [numLevels]atomic.Uint32

	// Async output queue, used when a writer must not be called from the
	// context that produced the record.
	logQueue chan LogRecord
	logDrops atomic.Uint32
)

func init() {
	logLevel.Store(uint32(LevelInfo))
}

// SetLogWriter sets the platform-specific diagnostic output. A nil writer
// discards records.
func SetLogWriter(w LogWriter) {
	if w == nil {
		logWriter.Store(nil)
		return
	}
	logWriter.Store(&w)
}

// SetLogLevel sets the most verbose level that is emitted.
func SetLogLevel(l Level) {
	logLevel.Store(uint32(l))
}

// SetLogClock sets the timestamp source for records, normally the time
// driver's Now.
func SetLogClock(now func() uint64) {
	if now == nil {
		logClock.Store(nil)
		return
	}
	logClock.Store(&now)
}

// InitAsyncLog starts the goroutine that drains queued records into the
// writer. After it runs, logging never calls the writer directly, which makes
// it safe from interrupt handlers; records are dropped when the queue is full.
func InitAsyncLog() {
	if logQueue != nil {
		return
	}
	logQueue = make(chan LogRecord, logQueueSize)
	go logOutputWorker(logQueue)
}

func logOutputWorker(q chan LogRecord) {
	for rec := range q {
		if w := logWriter.Load(); w != nil {
			(*w)(rec)
		}
	}
}

// LogCount returns how many records of level l were produced, including
// filtered and dropped ones.
func LogCount(l Level) uint32 {
	if l >= numLevels {
		return 0
	}
	return logCounts[l].Load()
}

// LogDrops returns how many records the async queue dropped.
func LogDrops() uint32 {
	return logDrops.Load()
}

// ResetLogCounts zeroes the per-level and drop counters.
func ResetLogCounts() {
	for i := range logCounts {
		logCounts[i].Store(0)
	}
	logDrops.Store(0)
}

// Log emits msg at level l.
func Log(l Level, msg string) {
	if l >= numLevels {
		return
	}
	logCounts[l].Add(1)
	if uint32(l) > logLevel.Load() {
		return
	}
	rec := LogRecord{Level: l, Message: msg}
	if now := logClock.Load(); now != nil {
		rec.Timestamp = (*now)()
	}
	if logQueue != nil {
		select {
		case logQueue <- rec:
		default:
			logDrops.Add(1)
		}
		return
	}
	if w := logWriter.Load(); w != nil {
		(*w)(rec)
	}
}

// LogError logs msg at LevelError.
func LogError(msg string) { Log(LevelError, msg) }

// LogWarn logs msg at LevelWarn.
func LogWarn(msg string) { Log(LevelWarn, msg) }

// LogInfo logs msg at LevelInfo.
func LogInfo(msg string) { Log(LevelInfo, msg) }

// LogDebug logs msg at LevelDebug.
func LogDebug(msg string) { Log(LevelDebug, msg) }

// LogTrace logs msg at LevelTrace.
func LogTrace(msg string) { Log(LevelTrace, msg) }
