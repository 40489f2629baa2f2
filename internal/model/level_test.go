package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOrdering(t *testing.T) {
	for i := 1; i < len(AllLevels); i++ {
		assert.Less(t, AllLevels[i-1], AllLevels[i])
	}
}

func TestDisplayIsTotal(t *testing.T) {
	for _, lvl := range AllLevels {
		d := lvl.Display()
		assert.NotEmpty(t, d.Icon, lvl.String())
		assert.NotEmpty(t, d.Color, lvl.String())
		assert.NotEmpty(t, d.Label, lvl.String())
	}
	assert.Equal(t, Display{Icon: "ion-bug", Color: "#000080", Label: "Debug"}, LevelDebug.Display())
	assert.Equal(t, "#FFA500", LevelWarn.Display().Color)
	assert.Equal(t, "#FF0000", LevelError.Display().Color)

	unknown := Level(42).Display()
	assert.Equal(t, "Unknown", unknown.Label)
	assert.Equal(t, "#000000", unknown.Color)
	assert.Equal(t, "ion-alert", unknown.Icon)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"Fatal":   LevelFatal,
		"0":       LevelTrace,
		"4":       LevelError,
	}
	for raw, want := range cases {
		got, err := ParseLevel(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
	_, err = ParseLevel("259")
	assert.Error(t, err, "values past int8 must not wrap into a valid level")
}

func TestLevelJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Level Level `json:"level"`
	}{LevelWarn})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"warn"}`, string(data))

	var decoded struct {
		Level Level `json:"level"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"level":"shouting"}`), &decoded))
	assert.Equal(t, LevelUnknown, decoded.Level)
	assert.Equal(t, "Unknown", decoded.Level.Display().Label)

	cases := map[string]Level{
		`{"level":3}`:     LevelWarn,
		`{"level":0}`:     LevelTrace,
		`{"level":99}`:    LevelUnknown,
		`{"level":259}`:   LevelUnknown,
		`{"level":-1}`:    LevelUnknown,
		`{"level":2.5}`:   LevelUnknown,
		`{"level":"4"}`:   LevelError,
		`{"level":"ERR"}`: LevelUnknown,
	}
	for raw, want := range cases {
		var got struct {
			Level Level `json:"level"`
		}
		require.NoError(t, json.Unmarshal([]byte(raw), &got), raw)
		assert.Equal(t, want, got.Level, raw)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := &LogEntry{
		ID:       "a",
		Metadata: json.RawMessage(`{"k":1}`),
		HTTP:     &HTTPContext{Method: "GET", Headers: map[string]string{"X": "1"}},
	}
	cp := orig.Clone()
	cp.Metadata[2] = 'z'
	cp.HTTP.Headers["X"] = "2"
	cp.HTTP.Method = "POST"

	assert.Equal(t, `{"k":1}`, string(orig.Metadata))
	assert.Equal(t, "1", orig.HTTP.Headers["X"])
	assert.Equal(t, "GET", orig.HTTP.Method)
}

func TestHTTPContextClone(t *testing.T) {
	var nilCtx *HTTPContext
	assert.Nil(t, nilCtx.Clone())

	orig := &HTTPContext{URL: "http://x", Headers: map[string]string{"A": "1"}}
	cp := orig.Clone()
	cp.Headers["A"] = "2"
	assert.Equal(t, "1", orig.Headers["A"])
	assert.Equal(t, "http://x", cp.URL)
}
