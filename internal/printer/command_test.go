// internal/printer/command_test.go
package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/batchlink/internal/batch"
)

func TestBuildCommands(t *testing.T) {
	rec := batch.Record{
		Index:          2050,
		Status:         batch.StatusSelected,
		BatchCode:      "AB12",
		DryerCode:      "D1 ",
		ProductionDate: "2026-08-01",
		ExpiryDate:     "2027-08-01",
	}

	cmds, err := BuildCommands(rec)
	require.NoError(t, err)
	require.Len(t, cmds, 4)

	assert.Equal(t, `external_field string 0 "AB12"`, cmds[0])
	assert.Equal(t, `external_field string 1 "D1"`, cmds[1], "trailing space trimmed")
	assert.Equal(t, `external_field string 2 "2026-08-01"`, cmds[2])
	assert.Equal(t, `external_field string 3 "2027-08-01"`, cmds[3])
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`A"B`, "A'B"},
		{"A\nB", "A B"},
		{"A\tB", "A B"},
		{"  AB  ", "AB"},
		{"AB12", "AB12"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitize(tc.in), "in=%q", tc.in)
	}
}

func TestStringFieldCommand_IndexBounds(t *testing.T) {
	_, err := stringFieldCommand(-1, "x")
	assert.Error(t, err)
	_, err = stringFieldCommand(maxStringField+1, "x")
	assert.Error(t, err)
	cmd, err := stringFieldCommand(maxStringField, "x")
	require.NoError(t, err)
	assert.Equal(t, `external_field string 19 "x"`, cmd)
}
