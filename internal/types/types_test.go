package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalTracksPresence(t *testing.T) {
	var payload struct {
		Name    Optional[string] `json:"name"`
		Phone   Optional[string] `json:"phone"`
		FeePaid Optional[bool]   `json:"feePaid"`
		Class   Optional[string] `json:"studentClass"`
	}
	err := json.Unmarshal([]byte(`{"name":"Alice","phone":null,"feePaid":"yes"}`), &payload)
	require.NoError(t, err)

	assert.True(t, payload.Name.Ok())
	assert.Equal(t, "Alice", payload.Name.Value)

	assert.True(t, payload.Phone.Set)
	assert.True(t, payload.Phone.Null)
	assert.False(t, payload.Phone.Ok())

	assert.True(t, payload.FeePaid.Set)
	assert.True(t, payload.FeePaid.Invalid)

	assert.False(t, payload.Class.Set)
}

func TestOptionalMarshal(t *testing.T) {
	out, err := json.Marshal(map[string]Optional[int]{"a": Some(3), "b": {}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null}`, string(out))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2010-05-01")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2010, time.May, 1), d)
	assert.Equal(t, "2010-05-01", d.String())

	// the calendar date of a timestamp is taken in its own offset
	d, err = ParseDate("2010-05-01T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, "2010-05-01", d.String())

	for _, bad := range []string{"", "2012-13-01", "2012-02-30", "01/02/2012", "yesterday"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	in := Student{ID: "x", Name: "Alice", Dob: NewDate(2010, time.May, 1)}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dob":"2010-05-01"`)

	var out Student
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, in.Dob.Equal(out.Dob.Time))
}

func TestStudentPatchApply(t *testing.T) {
	s := Student{ID: "1", Name: "Alice", Phone: "1234567", StudentClass: "5A"}

	assert.True(t, StudentPatch{}.IsEmpty())

	p := StudentPatch{FeePaid: Some(true)}
	assert.False(t, p.IsEmpty())

	got := p.Apply(s)
	assert.True(t, got.FeePaid)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "5A", got.StudentClass)
	assert.False(t, s.FeePaid, "Apply must not modify its argument")
}

func TestStudentFilterMatches(t *testing.T) {
	s := Student{Name: "Alice", Phone: "1234567"}

	assert.True(t, StudentFilter{}.IsEmpty())
	assert.True(t, StudentFilter{Name: "Alice"}.Matches(s))
	assert.True(t, StudentFilter{Phone: "1234567"}.Matches(s))
	assert.True(t, StudentFilter{Name: "Alice", Phone: "1234567"}.Matches(s))
	assert.False(t, StudentFilter{Name: "Alice", Phone: "7654321"}.Matches(s))
	assert.False(t, StudentFilter{Name: "Bob"}.Matches(s))
}
