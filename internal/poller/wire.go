package poller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WireID is an alert identifier as sent by the server. The listing endpoint
// may encode ids as JSON numbers or strings; both decode to the same text.
type WireID string

// UnmarshalJSON accepts a JSON string or number.
func (id *WireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = WireID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("alert id must be a string or number: %w", err)
	}
	*id = WireID(n.String())
	return nil
}

// WireTime is a timestamp as sent by the server. Besides RFC 3339 it accepts
// the naive ISO layouts produced by Python's datetime.isoformat and str().
//
// A value in no supported layout decodes to the zero time with Raw holding
// the original text, so one odd timestamp never loses the alert.
type WireTime struct {
	time.Time

	// Raw is the undecodable input, empty when decoding succeeded.
	Raw string
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts a string in one of the supported layouts, a unix
// timestamp in seconds, or null. It never fails.
func (t *WireTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	t.Time, t.Raw = time.Time{}, ""
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		secs, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			t.Raw = string(data)
			return nil
		}
		t.Time = time.Unix(0, int64(secs*float64(time.Second))).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Raw = string(data)
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range wireTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Raw = s
	return nil
}

// WireAlert is one element of the pending listing.
type WireAlert struct {
	ID            WireID   `json:"id" validate:"required"`
	Type          string   `json:"type"`
	Priority      string   `json:"priority"`
	Message       string   `json:"message"`
	CandidateName string   `json:"candidate_name"`
	Position      string   `json:"position"`
	CandidateID   WireID   `json:"candidate_id"`
	Timestamp     WireTime `json:"timestamp"`
}
