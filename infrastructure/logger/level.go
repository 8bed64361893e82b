package logger

import "strings"

// Level is the level at which a logger is configured. All messages sent
// to a level which is below the current level are filtered.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelTags are the tags printed in log lines for each level, and
// levelNames are the names accepted by LevelFromString along with them.
var (
	levelTags  = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}
	levelNames = [...]string{"trace", "debug", "info", "warn", "error", "critical", "off"}
)

// LevelFromString returns the level named by s, either by its full name
// or by its tag, case-insensitively. If s names no level, the info level
// and false is returned.
func LevelFromString(s string) (l Level, ok bool) {
	s = strings.ToLower(s)
	for level := LevelTrace; level <= LevelOff; level++ {
		if s == levelNames[level] || s == strings.ToLower(levelTags[level]) {
			return level, true
		}
	}
	return LevelInfo, false
}

// String returns the tag of the logger used in log messages, or "OFF" if
// the level will not produce any log output.
func (l Level) String() string {
	if l >= LevelOff {
		return "OFF"
	}
	return levelTags[l]
}
