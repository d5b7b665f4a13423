package store

import (
	"math/rand"
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/stretchr/testify/assert"
)

func TestFactorHashCommutative(t *testing.T) {
	ids := []dictionary.Id{3, 1, 4, 1, 5, 9, 2, 6}
	want := FactorHash(ids)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]dictionary.Id(nil), ids...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, FactorHash(shuffled))
	}
}

func TestFactorHashDiffersForDifferentMultisets(t *testing.T) {
	a := FactorHash([]dictionary.Id{1, 2, 3})
	b := FactorHash([]dictionary.Id{1, 2, 4})
	assert.NotEqual(t, a, b)
}
