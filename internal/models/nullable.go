package models

import "encoding/json"

// NullableString is a JSON string field that remembers whether it was sent.
// Health log writes use it so that omitting "notes" keeps the stored notes,
// "notes": null clears them, and a string replaces them.
type NullableString struct {
	Value string
	Valid bool // a non-null value was sent
	Set   bool // the field was present at all
}

// UnmarshalJSON only runs for fields present in the document
func (ns *NullableString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*ns = NullableString{Set: true}
	if s != nil {
		ns.Value, ns.Valid = *s, true
	}
	return nil
}

// MarshalJSON writes null unless a value is held
func (ns NullableString) MarshalJSON() ([]byte, error) {
	return json.Marshal(ns.ToPtr())
}

// ToPtr returns nil for null, otherwise a pointer to Value
func (ns NullableString) ToPtr() *string {
	if !ns.Valid {
		return nil
	}
	return &ns.Value
}

// Resolve returns the notes to store given the currently stored value
func (ns NullableString) Resolve(existing *string) *string {
	if !ns.Set {
		return existing
	}
	return ns.ToPtr()
}
