package model

import "encoding/json"

// AppendLogRequest is the body of POST /v1/logs.
type AppendLogRequest struct {
	Level    string       `json:"level" binding:"required"`
	Tag      string       `json:"tag" binding:"required"`
	Message  string       `json:"message" binding:"required"`
	Metadata interface{}  `json:"metadata"`
	HTTP     *HTTPContext `json:"http"`
}

// LogEntryView is a LogEntry as served by the API, with its level display.
type LogEntryView struct {
	*LogEntry
	Display Display `json:"display"`
}

func NewLogEntryView(e *LogEntry) LogEntryView {
	return LogEntryView{LogEntry: e, Display: e.Level.Display()}
}

func NewLogEntryViews(entries []*LogEntry) []LogEntryView {
	out := make([]LogEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewLogEntryView(e))
	}
	return out
}

// MetadataValue decodes the raw metadata for display or export.
func (e *LogEntry) MetadataValue() interface{} {
	if len(e.Metadata) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(e.Metadata, &v); err != nil {
		return string(e.Metadata)
	}
	return v
}
