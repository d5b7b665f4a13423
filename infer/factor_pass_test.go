package infer

import (
	"math/rand"
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/stretchr/testify/assert"
)

func TestMaxSafeFactorialDetectsOverflow(t *testing.T) {
	_, ok := maxSafeFactorial(5)
	assert.True(t, ok)
	_, ok = maxSafeFactorial(25)
	assert.False(t, ok)
}

func TestCandidatePermutationsEnumeratesSmallSets(t *testing.T) {
	free := []dictionary.Id{1, 2, 3}
	perms := candidatePermutations(free, 64, rand.New(rand.NewSource(1)))
	assert.Len(t, perms, 6) // 3! = 6 <= beam
}

func TestCandidatePermutationsSamplesLargeSets(t *testing.T) {
	free := make([]dictionary.Id, 10) // 10! way over beam of 8
	for i := range free {
		free[i] = dictionary.Id(i)
	}
	perms := candidatePermutations(free, 8, rand.New(rand.NewSource(1)))
	assert.Len(t, perms, 8)
}

func TestSubtractMultisetRequiresSuperset(t *testing.T) {
	free, ok := subtractMultiset([]dictionary.Id{1, 1, 2}, []dictionary.Id{1})
	assert.True(t, ok)
	assert.ElementsMatch(t, []dictionary.Id{1, 2}, free)

	_, ok = subtractMultiset([]dictionary.Id{1, 2}, []dictionary.Id{3})
	assert.False(t, ok)
}
