package transbot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	names := []string{"ID", "POSITION", "TIME"}
	cases := []struct {
		name   string
		args   []string
		expect []int64
		err    string
	}{
		{"defaults", []string{"7", "2000"}, []int64{7, 2000, 500}, ""},
		{"all", []string{"8", "0x100", "10"}, []int64{8, 256, 10}, ""},
		{"missing", []string{"7"}, nil, "POSITION required"},
		{"extra", []string{"7", "1", "2", "3"}, nil, "too many arguments"},
		{"invalid", []string{"x", "1"}, nil, "invalid ID"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vals := []int64{0, 0, 500}
			err := parseArgs(c.args, 2, names, vals)
			if c.err != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), c.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.expect, vals)
		})
	}
}

func TestParseBool(t *testing.T) {
	for arg, expect := range map[string]bool{"on": true, "off": false, "1": true, "false": false} {
		val, err := parseBool([]string{arg}, "STATE")
		require.NoError(t, err)
		require.Equal(t, expect, val, arg)
	}
	_, err := parseBool(nil, "STATE")
	require.EqualError(t, err, "STATE required")
	_, err = parseBool([]string{"maybe"}, "STATE")
	require.Error(t, err)
}
