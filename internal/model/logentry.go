package model

import (
	"encoding/json"
	"time"
)

// LogEntry 一条应用日志记录
type LogEntry struct {
	ID        string          `json:"id" yaml:"id"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	Level     Level           `json:"level" yaml:"level"`
	Tag       string          `json:"tag" yaml:"tag"` // 产生日志的组件名
	Message   string          `json:"message" yaml:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty" yaml:"-"`

	// Only set when the entry comes from a network failure.
	HTTP *HTTPContext `json:"http,omitempty" yaml:"http,omitempty"`
}

type HTTPContext struct {
	Method     string            `json:"method" yaml:"method"`
	URL        string            `json:"url" yaml:"url"`
	Status     int               `json:"status,omitempty" yaml:"status,omitempty"`
	StatusText string            `json:"status_text,omitempty" yaml:"status_text,omitempty"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       string            `json:"body,omitempty" yaml:"body,omitempty"`
}

func (e *LogEntry) HasHTTP() bool {
	return e != nil && e.HTTP != nil
}

// Clone returns a deep copy so callers cannot mutate store state.
func (e *LogEntry) Clone() *LogEntry {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Metadata != nil {
		cp.Metadata = append(json.RawMessage(nil), e.Metadata...)
	}
	cp.HTTP = e.HTTP.Clone()
	return &cp
}

func (h *HTTPContext) Clone() *HTTPContext {
	if h == nil {
		return nil
	}
	cp := *h
	if h.Headers != nil {
		cp.Headers = make(map[string]string, len(h.Headers))
		for k, v := range h.Headers {
			cp.Headers[k] = v
		}
	}
	return &cp
}
