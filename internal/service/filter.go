package service

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/apperrors"
)

// Predicate selects entries for display. Predicates must not mutate the entry.
type Predicate func(e *model.LogEntry) bool

func MinLevel(min model.Level) Predicate {
	return func(e *model.LogEntry) bool {
		return e.Level >= min
	}
}

func Levels(levels ...model.Level) Predicate {
	set := make(map[model.Level]struct{}, len(levels))
	for _, l := range levels {
		set[l] = struct{}{}
	}
	return func(e *model.LogEntry) bool {
		_, ok := set[e.Level]
		return ok
	}
}

func HasHTTP() Predicate {
	return func(e *model.LogEntry) bool {
		return e.HasHTTP()
	}
}

func Tag(tag string) Predicate {
	return func(e *model.LogEntry) bool {
		return strings.EqualFold(e.Tag, tag)
	}
}

// Search matches a case-insensitive substring of the message or tag.
func Search(q string) Predicate {
	q = strings.ToLower(q)
	return func(e *model.LogEntry) bool {
		return strings.Contains(strings.ToLower(e.Message), q) ||
			strings.Contains(strings.ToLower(e.Tag), q)
	}
}

// Between keeps entries inside [from, to]; a nil bound is open.
func Between(from, to *time.Time) Predicate {
	return func(e *model.LogEntry) bool {
		if from != nil && e.Timestamp.Before(*from) {
			return false
		}
		if to != nil && e.Timestamp.After(*to) {
			return false
		}
		return true
	}
}

func And(preds ...Predicate) Predicate {
	return func(e *model.LogEntry) bool {
		for _, p := range preds {
			if p != nil && !p(e) {
				return false
			}
		}
		return true
	}
}

func Or(preds ...Predicate) Predicate {
	return func(e *model.LogEntry) bool {
		for _, p := range preds {
			if p != nil && p(e) {
				return true
			}
		}
		return false
	}
}

func Not(p Predicate) Predicate {
	return func(e *model.LogEntry) bool {
		return !p(e)
	}
}

// Limit truncates entries to at most n; n <= 0 keeps all.
func Limit(entries []*model.LogEntry, n int) []*model.LogEntry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}

// ParseQuery builds a predicate from query parameters:
// level (repeatable or comma separated), min_level, tag, q, http, from, to.
func ParseQuery(values url.Values) (Predicate, error) {
	var preds []Predicate

	var levels []model.Level
	for _, raw := range values["level"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			lvl, err := model.ParseLevel(part)
			if err != nil {
				return nil, apperrors.NewInvalidRequest(err.Error())
			}
			levels = append(levels, lvl)
		}
	}
	if len(levels) > 0 {
		preds = append(preds, Levels(levels...))
	}
	if raw := values.Get("min_level"); raw != "" {
		lvl, err := model.ParseLevel(raw)
		if err != nil {
			return nil, apperrors.NewInvalidRequest(err.Error())
		}
		preds = append(preds, MinLevel(lvl))
	}
	if tag := values.Get("tag"); tag != "" {
		preds = append(preds, Tag(tag))
	}
	if q := values.Get("q"); q != "" {
		preds = append(preds, Search(q))
	}
	if raw := values.Get("http"); raw != "" {
		want, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperrors.NewInvalidRequest(fmt.Sprintf("invalid http flag %q", raw))
		}
		if want {
			preds = append(preds, HasHTTP())
		} else {
			preds = append(preds, Not(HasHTTP()))
		}
	}

	var fromPtr, toPtr *time.Time
	if raw := values.Get("from"); raw != "" {
		t, err := ParseTime(raw)
		if err != nil {
			return nil, apperrors.NewInvalidRequest(err.Error())
		}
		fromPtr = &t
	}
	if raw := values.Get("to"); raw != "" {
		t, err := ParseTime(raw)
		if err != nil {
			return nil, apperrors.NewInvalidRequest(err.Error())
		}
		toPtr = &t
	}
	if fromPtr != nil || toPtr != nil {
		preds = append(preds, Between(fromPtr, toPtr))
	}

	if len(preds) == 0 {
		return nil, nil
	}
	return And(preds...), nil
}

// ParseTime accepts RFC3339 or unix seconds.
func ParseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time format %q", raw)
}
