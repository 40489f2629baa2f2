package service

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/apperrors"
	"github.com/GoPolymarket/logkeep/internal/pkg/logger"
	"github.com/segmentio/encoding/json"
)

const metadataFallbackKey = "_malformed_metadata"

// encodeCollection writes entries in insertion order as one JSON array.
func encodeCollection(entries []*model.LogEntry) ([]byte, error) {
	if entries == nil {
		entries = []*model.LogEntry{}
	}
	return json.Marshal(entries)
}

func decodeCollection(payload []byte) ([]*model.LogEntry, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, nil
	}
	var entries []*model.LogEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// EncodeMetadata serializes arbitrary metadata. Values that cannot be
// serialized (cycles, channels, funcs) degrade to a JSON object carrying a
// description instead of failing the caller.
//
// encoding/json is used here rather than the collection codec because it
// detects reference cycles and reports them as errors.
func EncodeMetadata(v interface{}) stdjson.RawMessage {
	switch m := v.(type) {
	case nil:
		return nil
	case stdjson.RawMessage:
		if stdjson.Valid(m) {
			return append(stdjson.RawMessage(nil), m...)
		}
		return fallbackMetadata(v, fmt.Errorf("invalid raw JSON"))
	case []byte:
		if stdjson.Valid(m) {
			return append(stdjson.RawMessage(nil), m...)
		}
	}
	raw, err := stdjson.Marshal(v)
	if err != nil {
		return fallbackMetadata(v, err)
	}
	return raw
}

func fallbackMetadata(v interface{}, err error) stdjson.RawMessage {
	appErr := apperrors.New(apperrors.ErrMalformedMetadata, fmt.Sprintf("unserializable %T", v), err)
	logger.Warn("metadata replaced by fallback", "code", appErr.Type, "error", appErr)
	raw, _ := stdjson.Marshal(map[string]string{metadataFallbackKey: "[" + appErr.Error() + "]"})
	return raw
}
