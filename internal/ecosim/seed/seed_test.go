package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromName_IsDeterministic(t *testing.T) {
	a := FromName("ridge-1")
	b := FromName("ridge-1")
	assert.Equal(t, a, b)
}

func TestFromName_SimilarNamesProduceUnrelatedSeeds(t *testing.T) {
	a := FromName("ridge-1")
	b := FromName("ridge-2")
	assert.NotEqual(t, a, b)
}

func TestFromName_EmptyNameIsStable(t *testing.T) {
	a := FromName("")
	b := FromName("")
	assert.Equal(t, a, b)
}
