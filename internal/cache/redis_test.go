package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "scoretree:jobs:abc", Key("jobs", "abc"))
	assert.Equal(t, "scoretree:", Key())
}
