package logger

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Event log lines are single JSON objects on stdout so they can be
// shipped as-is by the log collector.

var (
	mu  sync.Mutex
	out = os.Stdout
)

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	UserID    string                 `json:"userID,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func Init() {
	Info("logger_initialized", nil)
}

func write(level, event, userID, errMsg string, fields map[string]interface{}) {
	line := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Event:     event,
		UserID:    userID,
		Error:     errMsg,
		Fields:    fields,
	}

	encoded, err := json.Marshal(line)
	if err != nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	_, _ = out.Write(append(encoded, '\n'))
}

func Info(event string, fields map[string]interface{}) {
	write("info", event, "", "", fields)
}

func Warn(event string, fields map[string]interface{}) {
	write("warn", event, "", "", fields)
}

func Error(event string, err error, fields map[string]interface{}) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	write("error", event, "", message, fields)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	write("info", event, userID, "", fields)
}

func WarnWithUser(userID, event string, fields map[string]interface{}) {
	write("warn", event, userID, "", fields)
}
