package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ref is a reference to a related object given either as a numeric id or a
// natural key such as "HP-DL360". It accepts JSON numbers, strings and null.
type Ref string

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Ref(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("reference must be an id or a name: %w", err)
	}
	*r = Ref(n.String())
	return nil
}

// Empty reports whether the reference is blank or zero. Clients send 0 or
// "" to mean "no value".
func (r Ref) Empty() bool {
	return r == "" || r == "0"
}

// ID returns the numeric id when the reference is all digits.
func (r Ref) ID() (uint, bool) {
	id, err := strconv.ParseUint(string(r), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (r Ref) String() string { return string(r) }

// RefPtr returns nil for an empty string.
func RefPtr(s string) *Ref {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	r := Ref(strings.TrimSpace(s))
	return &r
}
