package model

import (
	"fmt"
	"strings"
	"time"
)

// Level represents the severity level of a log event.
type Level int

// Severity levels, lowest first.
const (
	Verbose Level = iota
	Debug
	Information
	Warning
	Error
	Fatal
)

// String returns the canonical name of the level.
func (l Level) String() string {
	switch l {
	case Verbose:
		return "Verbose"
	case Debug:
		return "Debug"
	case Information:
		return "Information"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	case Fatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// LabelValue returns the stream-label token for the level. Information
// maps to the short token "info"; every other level is the lowercase
// form of its name.
func (l Level) LabelValue() string {
	if l == Information {
		return "info"
	}
	return strings.ToLower(l.String())
}

// ParseLevel maps a level token to a Level. It accepts both canonical
// names and common short forms, case-insensitively. Unknown tokens
// default to Information.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "verbose", "trace", "trc":
		return Verbose
	case "debug", "dbg":
		return Debug
	case "information", "info":
		return Information
	case "warning", "warn":
		return Warning
	case "error", "err":
		return Error
	case "fatal", "critical", "crit":
		return Fatal
	default:
		return Information
	}
}

// Property is a single named scalar carried by an event. Properties
// keep their original order, so the slice form is used instead of a
// map.
type Property struct {
	Name  string
	Value interface{}
}

// ExceptionInfo is one link of an exception chain. Cause points at the
// next-inner exception, nil when the chain ends.
type ExceptionInfo struct {
	Message string
	Trace   string
	Cause   *ExceptionInfo
}

// Event represents a single structured log event handed to the
// formatter. Events are immutable inputs; the formatter never mutates
// them.
type Event struct {
	Timestamp  time.Time
	Level      Level
	Message    string // rendered message, template already substituted
	Properties []Property
	Exception  *ExceptionInfo
}

// PropertyString stringifies a scalar property value.
func PropertyString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
