package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagsScan_AcceptsLegacyShapes(t *testing.T) {
	cases := map[string]Tags{
		`["General","Riverbank Trust"]`:    {"General", "Riverbank Trust"},
		"General, Riverbank Trust ,":       {"General", "Riverbank Trust"},
		`{General,"Riverbank Trust"}`:      {"General", "Riverbank Trust"},
		"":                                 {},
		`[" spaced ", ""]`:                 {"spaced"},
	}
	for in, want := range cases {
		var got Tags
		require.NoError(t, got.Scan([]byte(in)), in)
		assert.Equal(t, want, got, in)
	}

	var fromNil Tags
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)

	assert.Error(t, fromNil.Scan(42))
}

func TestTagsScan_ArrayLiteralQuoting(t *testing.T) {
	cases := map[string]Tags{
		`{"General, News","Riverbank Trust"}`: {"General, News", "Riverbank Trust"},
		`{"say \"hi\"",plain}`:                {`say "hi"`, "plain"},
		`{NULL,"NULL",x}`:                     {"NULL", "x"},
		`{}`:                                  {},
	}
	for in, want := range cases {
		var got Tags
		require.NoError(t, got.Scan(in), in)
		assert.Equal(t, want, got, in)
	}
}

func TestTagsValue_AlwaysJSONArray(t *testing.T) {
	v, err := Tags{"a", " ", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = Tags(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)
}

func TestTagsUnmarshalJSON_StringOrArray(t *testing.T) {
	var body struct {
		Tags Tags `json:"tags"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tags":"x, y"}`), &body))
	assert.Equal(t, Tags{"x", "y"}, body.Tags)

	require.NoError(t, json.Unmarshal([]byte(`{"tags":["y","x"]}`), &body))
	assert.Equal(t, Tags{"y", "x"}, body.Tags)
	assert.True(t, body.Tags.Contains("x"))
	assert.False(t, body.Tags.Contains("X"))
}

func TestDisplayName(t *testing.T) {
	id := uuid.MustParse("12345678-aaaa-bbbb-cccc-dddddddddddd")
	name := "Jo Doe"
	assert.Equal(t, "Jo Doe", DisplayName(id, "jo@example.com", &name))
	assert.Equal(t, "Jo", DisplayName(id, "jo@example.com", nil))
	assert.Equal(t, "User 12345678", DisplayName(id, "", nil))
}

func TestOrgRequestNormalizedStatus(t *testing.T) {
	empty := ""
	pending := "Pending"
	approved := "approved"
	assert.True(t, (&OrgRequest{}).IsPending())
	assert.True(t, (&OrgRequest{Status: &empty}).IsPending())
	assert.True(t, (&OrgRequest{Status: &pending}).IsPending())
	assert.False(t, (&OrgRequest{Status: &approved}).IsPending())
}
