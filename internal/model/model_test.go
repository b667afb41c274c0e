package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_RoundTrip(t *testing.T) {
	cases := []struct {
		in   string
		id   ID
		want string
	}{
		{`12`, "12", `12`},
		{`"12"`, "12", `12`},
		{`-3`, "-3", `-3`},
		{`"007"`, "007", `"007"`},
		{`"+5"`, "+5", `"+5"`},
		{`"-0"`, "-0", `"-0"`},
		{`"tmp-abc"`, "tmp-abc", `"tmp-abc"`},
		{`"99999999999999999999"`, "99999999999999999999", `"99999999999999999999"`},
	}
	for _, tc := range cases {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(tc.in), &id), tc.in)
		assert.Equal(t, tc.id, id, tc.in)

		out, err := json.Marshal(id)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, string(out), tc.in)
	}
}

func TestID_NonCanonicalIDsEncodeInRequestBodies(t *testing.T) {
	for _, raw := range []ID{"007", "+5"} {
		out, err := json.Marshal(MoveTaskInput{ColumnID: raw, Position: 10000})
		require.NoError(t, err)

		var back MoveTaskInput
		require.NoError(t, json.Unmarshal(out, &back))
		assert.Equal(t, raw, back.ColumnID)
	}
}

func TestID_NullIsZero(t *testing.T) {
	id := ID("5")
	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.True(t, id.IsZero())
}
