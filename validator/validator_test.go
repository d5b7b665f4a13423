package validator

import (
	"strings"
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRulesLiteralAndRegex(t *testing.T) {
	rules, err := ParseRules(strings.NewReader(`
# comment
% also a comment

+base
-AST_Node
+[a-z]+
`))
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.True(t, rules[0].Allow)
	assert.Equal(t, "base", rules[0].Literal)
	assert.False(t, rules[1].Allow)
	assert.Equal(t, "AST_Node", rules[1].Literal)
	assert.True(t, rules[2].Allow)
	assert.NotNil(t, rules[2].Regex)
}

func TestParseRulesRejectsBadLine(t *testing.T) {
	_, err := ParseRules(strings.NewReader("base\n"))
	assert.Error(t, err)
}

func TestIsValidDefaultsToInvalid(t *testing.T) {
	dict := dictionary.New()
	base := dict.Add("base")
	props := dict.Add("props")
	rules, err := ParseRules(strings.NewReader("+base\n"))
	require.NoError(t, err)
	v := New(rules, dict)
	assert.True(t, v.IsValid(base))
	assert.False(t, v.IsValid(props))
}

func TestIsValidLastMatchingRuleWins(t *testing.T) {
	dict := dictionary.New()
	node := dict.Add("AST_Node")
	rules, err := ParseRules(strings.NewReader("+AST_.*\n-AST_Node\n"))
	require.NoError(t, err)
	v := New(rules, dict)
	assert.False(t, v.IsValid(node))
}

func TestIsValidStringDefaultsToValid(t *testing.T) {
	rules, err := ParseRules(strings.NewReader("-disallowed\n"))
	require.NoError(t, err)
	v := New(rules, dictionary.New())
	assert.True(t, v.IsValidString("anything"))
	assert.False(t, v.IsValidString("disallowed"))
}

func TestLongStringsAreAlwaysInvalid(t *testing.T) {
	dict := dictionary.New()
	long := strings.Repeat("a", 101)
	id := dict.Add(long)
	rules, err := ParseRules(strings.NewReader("+" + long + "\n"))
	require.NoError(t, err)
	v := New(rules, dict)
	assert.False(t, v.IsValid(id))
	assert.False(t, v.IsValidString(long))
}

func TestNilValidatorAllowsEverything(t *testing.T) {
	var v *Validator
	assert.True(t, v.IsValid(5))
	assert.True(t, v.IsValidString("x"))
}
