package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadRef is returned when a reference value has none of the accepted
// shapes: a raw id, a numeric string, or a {value,label} select option.
var ErrBadRef = errors.New("reference must be an id, a numeric string, or a {value,label} option")

// Ref is the canonical entity reference at the API edge. Clients send ids
// in several shapes depending on which form control produced them; every
// shape is normalized here, once, instead of in each handler.
type Ref struct {
	ID    uint64
	Valid bool
}

type refOption struct {
	Value json.RawMessage `json:"value"`
	Label string          `json:"label"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*r = Ref{}
		return nil
	}

	if trimmed[0] == '{' {
		var opt refOption
		if err := json.Unmarshal(data, &opt); err != nil {
			return ErrBadRef
		}
		if len(opt.Value) == 0 {
			return ErrBadRef
		}
		return r.UnmarshalJSON(opt.Value)
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrBadRef
		}
		id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return ErrBadRef
		}
		*r = Ref{ID: id, Valid: true}
		return nil
	}

	var id uint64
	if err := json.Unmarshal(data, &id); err != nil {
		return ErrBadRef
	}
	*r = Ref{ID: id, Valid: true}
	return nil
}

// RefList normalizes an array of mixed-shape references into ids.
type RefList []uint64

func (l *RefList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrBadRef
	}

	ids := make([]uint64, 0, len(raw))
	for _, item := range raw {
		var ref Ref
		if err := ref.UnmarshalJSON(item); err != nil {
			return err
		}
		if ref.Valid {
			ids = append(ids, ref.ID)
		}
	}
	*l = ids
	return nil
}

// Option is the canonical enum-valued select field (priority, status,
// type). Accepts a bare string or a {value,label} object.
type Option struct {
	Value string
	Valid bool
}

func (o *Option) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*o = Option{}
		return nil
	}

	if trimmed[0] == '{' {
		var opt refOption
		if err := json.Unmarshal(data, &opt); err != nil {
			return ErrBadRef
		}
		if len(opt.Value) == 0 {
			return ErrBadRef
		}
		return o.UnmarshalJSON(opt.Value)
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Numeric enum codes arrive from some legacy form controls.
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return ErrBadRef
		}
		*o = Option{Value: n.String(), Valid: true}
		return nil
	}
	*o = Option{Value: strings.TrimSpace(s), Valid: true}
	return nil
}

// ParseRef normalizes a multipart form value into an id.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, nil
	}
	if s[0] == '{' || s[0] == '"' {
		var ref Ref
		if err := json.Unmarshal([]byte(s), &ref); err != nil {
			return Ref{}, err
		}
		return ref, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Ref{}, ErrBadRef
	}
	return Ref{ID: id, Valid: true}, nil
}

// ParseRefList normalizes a multipart form value into ids. Accepts a JSON
// array or a comma-separated list.
func ParseRefList(s string) (RefList, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if s[0] == '[' {
		var list RefList
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	parts := strings.Split(s, ",")
	ids := make(RefList, 0, len(parts))
	for _, part := range parts {
		ref, err := ParseRef(part)
		if err != nil {
			return nil, err
		}
		if ref.Valid {
			ids = append(ids, ref.ID)
		}
	}
	return ids, nil
}

// ParseOption normalizes a multipart form value into an enum value.
func ParseOption(s string) (Option, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Option{}, nil
	}
	if s[0] == '{' {
		var opt Option
		if err := json.Unmarshal([]byte(s), &opt); err != nil {
			return Option{}, err
		}
		return opt, nil
	}
	return Option{Value: s, Valid: true}, nil
}

// Dedupe returns the list with duplicates removed, order preserved.
func (l RefList) Dedupe() []uint64 {
	seen := make(map[uint64]struct{}, len(l))
	out := make([]uint64, 0, len(l))
	for _, id := range l {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r Ref) String() string {
	if !r.Valid {
		return "<nil>"
	}
	return fmt.Sprintf("%d", r.ID)
}
