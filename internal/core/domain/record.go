package domain

import (
	"encoding/json"
	"fmt"
)

const (
	// AnonymousAuthor replaces a missing author handle.
	AnonymousAuthor = "anonymous"
	// NullContent replaces missing record text.
	NullContent = "NULL_CONTENT"
)

// Record is one decoded unit of streamed content. Location fields are kept
// raw until the filter asks for them so that a malformed location rejects the
// record instead of failing the decode.
type Record struct {
	ID     string
	Author *string
	Text   *string

	// Coordinates is the raw "coordinates" object, nil when absent or null.
	Coordinates json.RawMessage
	// Place is the raw "place" object, nil when absent or null.
	Place json.RawMessage

	// Raw is the payload exactly as received, without line terminators.
	Raw []byte
}

// wireRecord keeps the display fields raw: a wrong-typed text or user falls
// back to the sentinels instead of rejecting the record.
type wireRecord struct {
	IDStr         json.RawMessage `json:"id_str"`
	Text          json.RawMessage `json:"text"`
	Coordinates   json.RawMessage `json:"coordinates"`
	Place         json.RawMessage `json:"place"`
	ExtendedTweet json.RawMessage `json:"extended_tweet"`
	User          json.RawMessage `json:"user"`
}

// DecodeRecord decodes a raw stream payload. Only a payload that is not a
// JSON object is malformed.
func DecodeRecord(raw []byte) (*Record, error) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	r := &Record{
		Text:        optString(w.Text),
		Coordinates: nullToNil(w.Coordinates),
		Place:       nullToNil(w.Place),
		Raw:         raw,
	}
	if id := optString(w.IDStr); id != nil {
		r.ID = *id
	}
	if full := optString(field(w.ExtendedTweet, "full_text")); full != nil {
		r.Text = full
	}
	r.Author = optString(field(w.User, "screen_name"))
	return r, nil
}

// optString returns the JSON string in m, or nil for anything else.
func optString(m json.RawMessage) *string {
	var s string
	if m = nullToNil(m); m == nil || json.Unmarshal(m, &s) != nil {
		return nil
	}
	return &s
}

// field returns the named member of the JSON object in m, or nil when m is
// not an object.
func field(m json.RawMessage, name string) json.RawMessage {
	var obj map[string]json.RawMessage
	if len(m) == 0 || json.Unmarshal(m, &obj) != nil {
		return nil
	}
	return obj[name]
}

func nullToNil(m json.RawMessage) json.RawMessage {
	if len(m) == 0 || string(m) == "null" {
		return nil
	}
	return m
}

// AuthorHandle returns the author or AnonymousAuthor.
func (r *Record) AuthorHandle() string {
	if r.Author == nil || *r.Author == "" {
		return AnonymousAuthor
	}
	return *r.Author
}

// Content returns the record text and whether it was present.
func (r *Record) Content() (string, bool) {
	if r.Text == nil {
		return "", false
	}
	return *r.Text, true
}

// HasPoint reports whether the record carries explicit point coordinates.
func (r *Record) HasPoint() bool {
	return r.Coordinates != nil
}

// Point returns the native [lon, lat] pair of the point coordinates.
func (r *Record) Point() ([]float64, error) {
	var c struct {
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(r.Coordinates, &c); err != nil {
		return nil, fmt.Errorf("coordinates: %w", err)
	}
	if c.Coordinates == nil {
		return nil, fmt.Errorf("coordinates: missing pair")
	}
	return c.Coordinates, nil
}

// PlaceCorners returns the outer ring of the place bounding box in native
// [lon, lat] order. ok is false when the record has no bounding box.
func (r *Record) PlaceCorners() (corners [][]float64, ok bool, err error) {
	if r.Place == nil {
		return nil, false, nil
	}
	var p struct {
		BoundingBox *struct {
			Coordinates [][][]float64 `json:"coordinates"`
		} `json:"bounding_box"`
	}
	if err := json.Unmarshal(r.Place, &p); err != nil {
		return nil, true, fmt.Errorf("place: %w", err)
	}
	if p.BoundingBox == nil {
		return nil, false, nil
	}
	if len(p.BoundingBox.Coordinates) == 0 || len(p.BoundingBox.Coordinates[0]) == 0 {
		return nil, true, fmt.Errorf("place: empty bounding box")
	}
	return p.BoundingBox.Coordinates[0], true, nil
}

// Entry is what a sink persists for an accepted record.
type Entry struct {
	Record *Record
	// Author and Content are the display forms used in the readable artifact.
	Author  string
	Content string
}
