package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

type payload struct {
	Values json.RawMessage `json:"values"`
}

// Decode parses a source response body into option records. The body must
// be a JSON object whose values field is an array of [value, label] pairs.
// Values and labels may be strings or numbers; numbers keep their literal
// text. Extra pair members are ignored.
func Decode(data []byte) ([]model.OptionRecord, error) {
	var body payload
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	raw := bytes.TrimSpace(body.Values)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New(`missing "values" field`)
	}

	var pairs []json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf(`"values" is not an array: %w`, err)
	}

	records := make([]model.OptionRecord, 0, len(pairs))
	for idx, rawPair := range pairs {
		var pair []json.RawMessage
		if err := json.Unmarshal(rawPair, &pair); err != nil {
			return nil, fmt.Errorf("values[%d] is not an array: %w", idx, err)
		}
		if len(pair) < 2 {
			return nil, fmt.Errorf("values[%d] has %d members, want 2", idx, len(pair))
		}
		value, err := scalar(pair[0])
		if err != nil {
			return nil, fmt.Errorf("values[%d][0]: %w", idx, err)
		}
		label, err := scalar(pair[1])
		if err != nil {
			return nil, fmt.Errorf("values[%d][1]: %w", idx, err)
		}
		records = append(records, model.OptionRecord{Value: value, Label: label})
	}
	return records, nil
}

func scalar(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errors.New("empty member")
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", fmt.Errorf("unsupported member %s", string(raw))
	}
}
