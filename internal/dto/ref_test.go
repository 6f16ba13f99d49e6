package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRef_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Ref
		wantErr bool
	}{
		{name: "raw number", input: `42`, want: Ref{ID: 42, Valid: true}},
		{name: "numeric string", input: `"42"`, want: Ref{ID: 42, Valid: true}},
		{name: "select option", input: `{"value": 42, "label": "Alice"}`, want: Ref{ID: 42, Valid: true}},
		{name: "option with string value", input: `{"value": "42", "label": "Alice"}`, want: Ref{ID: 42, Valid: true}},
		{name: "null", input: `null`, want: Ref{}},
		{name: "non-numeric string", input: `"alice"`, wantErr: true},
		{name: "option without value", input: `{"label": "Alice"}`, wantErr: true},
		{name: "negative number", input: `-1`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref Ref
			err := json.Unmarshal([]byte(tt.input), &ref)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, ref)
		})
	}
}

func TestRefList_UnmarshalJSON_MixedShapes(t *testing.T) {
	var list RefList
	err := json.Unmarshal([]byte(`[1, "2", {"value": 3, "label": "Carol"}]`), &list)
	require.NoError(t, err)
	require.Equal(t, RefList{1, 2, 3}, list)
}

func TestRefList_Dedupe(t *testing.T) {
	list := RefList{3, 1, 3, 2, 1}
	require.Equal(t, []uint64{3, 1, 2}, list.Dedupe())
}

func TestOption_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Option
	}{
		{name: "bare string", input: `"HIGH"`, want: Option{Value: "HIGH", Valid: true}},
		{name: "select option", input: `{"value": "HIGH", "label": "High"}`, want: Option{Value: "HIGH", Valid: true}},
		{name: "numeric code", input: `2`, want: Option{Value: "2", Valid: true}},
		{name: "null", input: `null`, want: Option{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opt Option
			require.NoError(t, json.Unmarshal([]byte(tt.input), &opt))
			require.Equal(t, tt.want, opt)
		})
	}
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("42")
	require.NoError(t, err)
	require.Equal(t, Ref{ID: 42, Valid: true}, ref)

	ref, err = ParseRef(`{"value": 7, "label": "Bob"}`)
	require.NoError(t, err)
	require.Equal(t, Ref{ID: 7, Valid: true}, ref)

	ref, err = ParseRef("")
	require.NoError(t, err)
	require.False(t, ref.Valid)

	_, err = ParseRef("abc")
	require.Error(t, err)
}

func TestParseRefList(t *testing.T) {
	list, err := ParseRefList(`[1, "2", {"value": 3}]`)
	require.NoError(t, err)
	require.Equal(t, RefList{1, 2, 3}, list)

	list, err = ParseRefList("1,2,3")
	require.NoError(t, err)
	require.Equal(t, RefList{1, 2, 3}, list)

	list, err = ParseRefList("")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestParseOption(t *testing.T) {
	opt, err := ParseOption("HIGH")
	require.NoError(t, err)
	require.Equal(t, Option{Value: "HIGH", Valid: true}, opt)

	opt, err = ParseOption(`{"value": "LOW", "label": "Low"}`)
	require.NoError(t, err)
	require.Equal(t, Option{Value: "LOW", Valid: true}, opt)
}
