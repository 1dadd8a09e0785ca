package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseParams(t *testing.T) {
	assert.Empty(t, parseParams(nil))
	assert.Equal(t,
		map[string]string{"cidr": "10.0.0.0/24", "flavor": "m1.small", "flag": ""},
		parseParams([]string{"cidr=10.0.0.0/24", "flavor=m1.small", "flag"}),
	)
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, terminalStatus("CREATE_COMPLETE"))
	assert.True(t, terminalStatus("UPDATE_FAILED"))
	assert.True(t, terminalStatus("ROLLBACK_COMPLETE"))
	assert.False(t, terminalStatus("DELETE_IN_PROGRESS"))
	assert.False(t, terminalStatus(""))
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "42s", formatAge(now.Add(-42*time.Second), now))
	assert.Equal(t, "5m", formatAge(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h", formatAge(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d", formatAge(now.Add(-49*time.Hour), now))
}

func TestStripTemplateNoise_Empty(t *testing.T) {
	assert.Equal(t, "", stripTemplateNoise(""))
	assert.Equal(t, "", stripTemplateNoise("# only comments\n\n# here\n"))
}

func TestStripTemplateNoise_CommentsAndBlanks(t *testing.T) {
	source := "# header comment\n" +
		"\n" +
		"resources:\n" +
		"\n" +
		"\n" +
		"  network:\n" +
		"    # inline comment line\n" +
		"    type: openstack::network\n" +
		"\n"
	expected := "resources:\n" +
		"\n" +
		"  network:\n" +
		"    type: openstack::network\n"
	assert.Equal(t, expected, stripTemplateNoise(source))
}
