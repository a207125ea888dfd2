package model

import "time"

type ActivityLevel string

const (
	ActivityDebug ActivityLevel = "DEBUG"
	ActivityInfo  ActivityLevel = "INFO"
	ActivityWarn  ActivityLevel = "WARN"
	ActivityError ActivityLevel = "ERROR"
	ActivityFatal ActivityLevel = "FATAL"
)

// Priority порядок уровней, неизвестный уровень считается DEBUG
func (l ActivityLevel) Priority() int {
	switch l {
	case ActivityInfo:
		return 1
	case ActivityWarn:
		return 2
	case ActivityError:
		return 3
	case ActivityFatal:
		return 4
	default:
		return 0
	}
}

// ActivityEntry запись журнала действий
type ActivityEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     ActivityLevel  `json:"level"`
	Context   string         `json:"context"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	SessionID string         `json:"sessionId"`
}

// ActivityStats число записей по уровням
type ActivityStats struct {
	Total int `json:"total"`
	Debug int `json:"debug"`
	Info  int `json:"info"`
	Warn  int `json:"warn"`
	Error int `json:"error"`
	Fatal int `json:"fatal"`
}
