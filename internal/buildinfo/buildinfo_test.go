package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoReportsStampedValues(t *testing.T) {
	old := Commit
	t.Cleanup(func() { Commit = old })
	Commit = "abc1234"

	info := Info()
	assert.Equal(t, Version, info["version"])
	assert.Equal(t, "abc1234", info["commit"])
	assert.Contains(t, info, "goVersion")
}
