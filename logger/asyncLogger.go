package logger

import (
	"fmt"
	"sync"

	log_model "puja-booking/models/log"
	"puja-booking/types"

	"gorm.io/gorm"
)

// AsyncLogger persists request logs off the request path.
type AsyncLogger struct {
	db      *gorm.DB
	channel chan types.LogEntry
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsyncLogger(db *gorm.DB) *AsyncLogger {
	return &AsyncLogger{
		db:      db,
		channel: make(chan types.LogEntry, 100), // Buffered channel to hold log entries
		done:    make(chan struct{}),
	}
}

// ProcessLog drains the channel until Close is called.
func (logger *AsyncLogger) ProcessLog() {
	defer close(logger.done)
	Info("Starting asynchronous logger...")

	for logEntry := range logger.channel {
		// Convert types.LogEntry to models.log.Log
		dbLog := log_model.Log{
			Method:          logEntry.Method,
			URL:             logEntry.URL,
			RequestBody:     logEntry.RequestBody,
			ResponseBody:    logEntry.ResponseBody,
			RequestHeaders:  logEntry.RequestHeaders,
			ResponseHeaders: logEntry.ResponseHeaders,
			StatusCode:      logEntry.StatusCode,
			CreatedAt:       logEntry.CreatedAt,
		}

		if err := logger.db.Create(&dbLog).Error; err != nil {
			Error("Failed to insert new log entry", err)
			continue
		}
		Debug(fmt.Sprintf("Inserted new log entry: %s %s", dbLog.Method, dbLog.URL))
	}
}

// Log pushes a log entry into the channel. Entries are dropped when the
// buffer is full so a slow database never stalls a request.
func (logger *AsyncLogger) Log(entry types.LogEntry) {
	logger.mu.RLock()
	defer logger.mu.RUnlock()
	if logger.closed {
		return
	}
	select {
	case logger.channel <- entry:
	default:
		Warning(fmt.Sprintf("Request log buffer full, dropping %s %s", entry.Method, entry.URL))
	}
}

// Close stops accepting entries and waits for the buffered ones to be written.
func (logger *AsyncLogger) Close() {
	logger.mu.Lock()
	if logger.closed {
		logger.mu.Unlock()
		return
	}
	logger.closed = true
	close(logger.channel)
	logger.mu.Unlock()
	<-logger.done
}
