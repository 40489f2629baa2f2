package service

import (
	"net/url"
	"testing"
	"time"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []*model.LogEntry {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []*model.LogEntry{
		{ID: "1", Timestamp: base, Level: model.LevelDebug, Tag: "Boot", Message: "config loaded"},
		{ID: "2", Timestamp: base.Add(time.Minute), Level: model.LevelWarn, Tag: "Net", Message: "slow response"},
		{ID: "3", Timestamp: base.Add(2 * time.Minute), Level: model.LevelError, Tag: "Net", Message: "Request failed",
			HTTP: &model.HTTPContext{Method: "POST", URL: "/v1/orders", Status: 500}},
		{ID: "4", Timestamp: base.Add(3 * time.Minute), Level: model.LevelFatal, Tag: "Db", Message: "connection lost"},
	}
}

func ids(entries []*model.LogEntry, pred Predicate) []string {
	var out []string
	for _, e := range entries {
		if pred == nil || pred(e) {
			out = append(out, e.ID)
		}
	}
	return out
}

func TestPredicates(t *testing.T) {
	entries := sampleEntries()
	base := entries[0].Timestamp

	assert.Equal(t, []string{"2", "3", "4"}, ids(entries, MinLevel(model.LevelWarn)))
	assert.Equal(t, []string{"2", "3"}, ids(entries, Levels(model.LevelWarn, model.LevelError)))
	assert.Equal(t, []string{"3"}, ids(entries, HasHTTP()))
	assert.Equal(t, []string{"2", "3"}, ids(entries, Tag("net")))
	assert.Equal(t, []string{"3"}, ids(entries, Search("REQUEST")))

	from := base.Add(time.Minute)
	to := base.Add(2 * time.Minute)
	assert.Equal(t, []string{"2", "3"}, ids(entries, Between(&from, &to)))
	assert.Equal(t, []string{"3", "4"}, ids(entries, Between(&to, nil)))

	assert.Equal(t, []string{"3"}, ids(entries, And(Tag("Net"), MinLevel(model.LevelError))))
	assert.Equal(t, []string{"1", "4"}, ids(entries, Or(Tag("Boot"), Tag("Db"))))
	assert.Equal(t, []string{"1", "2", "4"}, ids(entries, Not(HasHTTP())))
}

func TestLimit(t *testing.T) {
	entries := sampleEntries()
	assert.Len(t, Limit(entries, 2), 2)
	assert.Len(t, Limit(entries, 0), 4)
	assert.Len(t, Limit(entries, 10), 4)
}

func TestParseQuery(t *testing.T) {
	entries := sampleEntries()

	pred, err := ParseQuery(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, pred)

	pred, err = ParseQuery(url.Values{"level": {"warn,error"}, "tag": {"Net"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(entries, pred))

	pred, err = ParseQuery(url.Values{"min_level": {"error"}, "http": {"false"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, ids(entries, pred))

	pred, err = ParseQuery(url.Values{"from": {"2024-05-01T12:01:30Z"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, ids(entries, pred))

	_, err = ParseQuery(url.Values{"level": {"loud"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidRequest))
	_, err = ParseQuery(url.Values{"http": {"maybe"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidRequest))
	_, err = ParseQuery(url.Values{"to": {"yesterday"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidRequest))
}

func TestBroadcasterDropsForSlowSubscribers(t *testing.T) {
	b := NewBroadcaster(1)
	ch, cancel := b.Subscribe()
	assert.Equal(t, 1, b.Subscribers())

	b.Publish(&model.LogEntry{ID: "a"})
	b.Publish(&model.LogEntry{ID: "b"}) // buffer full, dropped

	assert.Equal(t, "a", (<-ch).ID)
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())
}
