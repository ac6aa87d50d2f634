package objstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainerName_Deterministic(t *testing.T) {
	a := ContainerName("auth0|user-1")
	b := ContainerName("auth0|user-1")
	assert.Equal(t, a, b)
}

func TestContainerName_DistinctOwners(t *testing.T) {
	assert.NotEqual(t, ContainerName("owner-1"), ContainerName("owner-2"))
}

func TestContainerName_BucketSafe(t *testing.T) {
	name := ContainerName("Owner|With+Weird@Chars")
	assert.True(t, strings.HasPrefix(name, "c-"))
	assert.Equal(t, strings.ToLower(name), name)
	assert.LessOrEqual(t, len(name), 63)
}
