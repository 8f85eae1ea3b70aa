package docstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeFormat is the fixed-width UTC layout used for createdAt/updatedAt so that
// the JSON text sorts chronologically
const TimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Document is one stored JSON object. Data always carries the "id",
// "createdAt" and "updatedAt" keys written by the store.
type Document struct {
	ID         string
	DelegateID string
	Data       json.RawMessage
}

// NewDocument encodes v as the document body
func NewDocument(id, delegateID string, v interface{}) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode document %s: %w", id, err)
	}
	return Document{ID: id, DelegateID: delegateID, Data: data}, nil
}

// Decode unmarshals the document body into v
func (d Document) Decode(v interface{}) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}
	return nil
}

// stamp returns data with the store-managed keys set. createdAt is kept from
// the existing object when one is given.
func stamp(data json.RawMessage, id string, createdAt, updatedAt time.Time) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("document %s is not a JSON object: %w", id, err)
		}
	}
	if fields == nil {
		return nil, fmt.Errorf("document %s is not a JSON object", id)
	}

	encode := func(v interface{}) json.RawMessage {
		b, _ := json.Marshal(v)
		return b
	}
	fields["id"] = encode(id)
	fields["createdAt"] = encode(createdAt.UTC().Format(TimeFormat))
	fields["updatedAt"] = encode(updatedAt.UTC().Format(TimeFormat))

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", id, err)
	}
	return out, nil
}

// createdAtOf reads the createdAt key of a stored body
func createdAtOf(data json.RawMessage) (time.Time, bool) {
	var head struct {
		CreatedAt string `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.CreatedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(TimeFormat, head.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
