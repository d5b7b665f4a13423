// Package validator implements C2, the label validator: deciding whether a
// label id or raw string is legal as an inferred output from a union of
// literal and regex allow/disallow rules loaded from a text file.
package validator

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/juju/errors"
)

// maxMatchableLength bounds the length of a string eligible to be matched
// by any rule; longer strings are always invalid.
const maxMatchableLength = 100

// regexMetaChars is the set of characters whose presence in a rule body
// marks it as a regex rather than a literal.
const regexMetaChars = `.?+*()[]{}|\$^`

// Rule is one parsed line of a validator rules file.
type Rule struct {
	Allow   bool
	Literal string         // set when the rule is a literal match
	Regex   *regexp.Regexp // set when the rule is a regex match
}

func (r Rule) isRegex() bool {
	return r.Regex != nil
}

func isRegexBody(body string) bool {
	return strings.ContainsAny(body, regexMetaChars)
}

// ParseRules parses a rules file's contents, one rule per line. Lines
// starting with '#' or '%' are comments, blank lines are ignored. Every
// other line must start with '+' (allow) or '-' (disallow); anything else
// is a fatal parse error, matching spec §7 ("invalid label rule... fatal
// at load time").
func ParseRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "%") {
			continue
		}
		var allow bool
		switch trimmed[0] {
		case '+':
			allow = true
		case '-':
			allow = false
		default:
			return nil, errors.Errorf("validator: invalid rule line %q: must start with '+', '-', '#' or '%%'", line)
		}
		body := trimmed[1:]
		rule := Rule{Allow: allow}
		if isRegexBody(body) {
			re, err := regexp.Compile(body)
			if err != nil {
				return nil, errors.Annotatef(err, "validator: invalid regex %q", body)
			}
			rule.Regex = re
		} else {
			rule.Literal = body
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return rules, nil
}

// LoadRulesFile reads and parses a rules file from disk. A missing or
// unreadable file is fatal at load time.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	return ParseRules(f)
}

// Validator decides whether label ids and raw label strings are legal
// inference outputs.
type Validator struct {
	rules   []Rule
	verdict map[dictionary.Id]bool
}

// New compiles rules against the dictionary's current contents, producing
// a verdict table. Ids never touched by any rule default to invalid.
func New(rules []Rule, dict *dictionary.Dictionary) *Validator {
	v := &Validator{
		rules:   rules,
		verdict: make(map[dictionary.Id]bool),
	}
	for _, entry := range dict.Enumerate() {
		matched := false
		valid := false
		if len(entry.String) > maxMatchableLength {
			v.verdict[entry.Id] = false
			continue
		}
		for _, rule := range rules {
			if rule.isRegex() {
				if rule.Regex.MatchString(entry.String) {
					valid = rule.Allow
					matched = true
				}
			} else if rule.Literal == entry.String {
				valid = rule.Allow
				matched = true
			}
		}
		v.verdict[entry.Id] = matched && valid
	}
	return v
}

// IsValid reports whether id is a legal inference output. An id not
// present in the compiled verdict table is invalid.
func (v *Validator) IsValid(id dictionary.Id) bool {
	if v == nil {
		return true
	}
	return v.verdict[id]
}

// IsValidString reports whether s would be a legal inference output, for
// strings not present in the dictionary (request-local labels). Unlike
// IsValid, ids start implicitly valid and each matching rule in file order
// overwrites the verdict.
func (v *Validator) IsValidString(s string) bool {
	if v == nil {
		return true
	}
	if len(s) > maxMatchableLength {
		return false
	}
	valid := true
	for _, rule := range v.rules {
		if rule.isRegex() {
			if rule.Regex.MatchString(s) {
				valid = rule.Allow
			}
		} else if rule.Literal == s {
			valid = rule.Allow
		}
	}
	return valid
}

// Rules returns the compiled rule list, in file order.
func (v *Validator) Rules() []Rule {
	if v == nil {
		return nil
	}
	return v.rules
}
