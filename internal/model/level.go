package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
)

// Level 日志严重级别，数值越大越严重
type Level int8

const (
	LevelUnknown Level = iota - 1
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// AllLevels in ascending severity.
var AllLevels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

// Display is how a level is presented to users.
type Display struct {
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
	Label string `json:"label" yaml:"label"`
}

var levelNames = map[Level]string{
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

var levelDisplays = map[Level]Display{
	LevelTrace: {Icon: "ion-code", Color: "#808080", Label: "Trace"},
	LevelDebug: {Icon: "ion-bug", Color: "#000080", Label: "Debug"},
	LevelInfo:  {Icon: "ion-information-circled", Color: "#000000", Label: "Info"},
	LevelWarn:  {Icon: "ion-alert-circled", Color: "#FFA500", Label: "Warn"},
	LevelError: {Icon: "ion-alert-circled", Color: "#FF0000", Label: "Error"},
	LevelFatal: {Icon: "ion-nuclear", Color: "#8B0000", Label: "Fatal"},
}

var unknownDisplay = Display{Icon: "ion-alert", Color: "#000000", Label: "Unknown"}

// Display never fails; levels outside the enumeration get the Unknown display.
func (l Level) Display() Display {
	if d, ok := levelDisplays[l]; ok {
		return d
	}
	return unknownDisplay
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// ParseLevel accepts level names (case-insensitive, "warning" alias) or their numeric value.
func ParseLevel(raw string) (Level, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "warning" {
		return LevelWarn, nil
	}
	for lvl, name := range levelNames {
		if name == s {
			return lvl, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && inRange(n) {
		return Level(n), nil
	}
	return LevelUnknown, fmt.Errorf("unknown log level %q", raw)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText never fails so a store written by a newer version still loads.
func (l *Level) UnmarshalText(text []byte) error {
	lvl, err := ParseLevel(string(text))
	if err != nil {
		*l = LevelUnknown
		return nil
	}
	*l = lvl
	return nil
}

// UnmarshalJSON accepts a level name or its numeric value. Anything else,
// including out of range numbers, decodes to LevelUnknown.
func (l *Level) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		return l.UnmarshalText([]byte(name))
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil && n >= int64(LevelTrace) && n <= int64(LevelFatal) {
		*l = Level(n)
		return nil
	}
	*l = LevelUnknown
	return nil
}

// inRange guards the int8 conversion.
func inRange(n int) bool {
	return n >= int(LevelTrace) && n <= int(LevelFatal)
}

// DisplayTable lists every known level with its display, in ascending severity.
func DisplayTable() []LevelDisplay {
	out := make([]LevelDisplay, 0, len(AllLevels))
	for _, lvl := range AllLevels {
		out = append(out, LevelDisplay{Level: lvl, Display: lvl.Display()})
	}
	return out
}

type LevelDisplay struct {
	Level   Level `json:"level" yaml:"level"`
	Display `yaml:",inline"`
}
