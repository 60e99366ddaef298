package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookIDUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want BookID
	}{
		{`"0190a3c4-1111-7000-8000-000000000001"`, "0190a3c4-1111-7000-8000-000000000001"},
		{`1700000000000`, "1700000000000"},
		{` 42 `, "42"},
		{`""`, ""},
	}
	for _, tc := range cases {
		var id BookID
		require.NoError(t, json.Unmarshal([]byte(tc.in), &id), tc.in)
		assert.Equal(t, tc.want, id)
	}

	var id BookID
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestBookJSONShape(t *testing.T) {
	b, err := json.Marshal(Book{ID: "1", Title: "Dune", Author: "Herbert", Year: 1965, IsComplete: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","title":"Dune","author":"Herbert","year":1965,"isComplete":true}`, string(b))
}

func TestParseFilter(t *testing.T) {
	for in, want := range map[string]Filter{
		"all":        FilterAll,
		" Unread ":   FilterUnread,
		"incomplete": FilterUnread,
		"READ":       FilterRead,
		"completed":  FilterRead,
	} {
		got, ok := ParseFilter(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseFilter("later")
	assert.False(t, ok)
}
