package sessionstore

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// record is the persisted form of a session. Only string values are kept,
// which is all the handlers ever store.
type record struct {
	Values map[string]string `cbor:"1,keyasint"`
}

func encodeValues(values map[interface{}]interface{}) ([]byte, error) {
	rec := record{Values: make(map[string]string, len(values))}
	for k, v := range values {
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("session key %v: only string keys are supported", k)
		}
		value, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("session value %q: only string values are supported, got %T", key, v)
		}
		rec.Values[key] = value
	}
	return encMode.Marshal(rec)
}

func decodeValues(data []byte) (map[interface{}]interface{}, error) {
	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	values := make(map[interface{}]interface{}, len(rec.Values))
	for k, v := range rec.Values {
		values[k] = v
	}
	return values, nil
}
