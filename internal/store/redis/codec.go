package redis

import (
	"encoding/json"
	"errors"
	"fmt"

	"tradesignals/internal/model"
)

var errNoData = errors.New("stream entry has no data field")

func decodeEvent(values map[string]interface{}) (model.SignalEvent, error) {
	var ev model.SignalEvent
	raw, ok := values["data"]
	if !ok {
		return ev, errNoData
	}
	var b []byte
	switch v := raw.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return ev, fmt.Errorf("data field of type %T", raw)
	}
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, fmt.Errorf("decode signal event: %w", err)
	}
	return ev, nil
}
