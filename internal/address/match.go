package address

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the similarity a fuzzy candidate must exceed.
const DefaultThreshold = 0.8

// DefaultSuffixes is the street-type vocabulary used for suffix correction.
var DefaultSuffixes = []string{
	"ST", "STREET",
	"RD", "ROAD",
	"AVE", "AVENUE",
	"BLVD", "BOULEVARD",
	"LN", "LANE",
	"DR", "DRIVE",
	"WAY",
	"PL", "PLACE",
	"CT", "COURT",
	"CIR", "CIRCLE",
	"TER", "TERRACE",
	"PKWY", "PARKWAY",
	"HWY", "HIGHWAY",
	"LOOP",
}

// Matcher fuzzy-matches tokens against the state table and street-type
// vocabulary. It is immutable and safe for concurrent use.
type Matcher struct {
	scorer    Scorer
	threshold float64
	states    []StateRecord
	suffixes  []string
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithScorer sets the similarity function.
func WithScorer(s Scorer) MatcherOption {
	return func(m *Matcher) { m.scorer = s }
}

// WithThreshold sets the score a candidate must strictly exceed.
func WithThreshold(t float64) MatcherOption {
	return func(m *Matcher) { m.threshold = t }
}

// WithStates replaces the state vocabulary. Order decides ties.
func WithStates(states []StateRecord) MatcherOption {
	return func(m *Matcher) { m.states = states }
}

// WithSuffixes replaces the street-type vocabulary. Order decides ties.
func WithSuffixes(suffixes []string) MatcherOption {
	return func(m *Matcher) { m.suffixes = suffixes }
}

// NewMatcher returns a Matcher using OSA distance, a 0.8 threshold, the
// canonical state table and DefaultSuffixes unless overridden.
func NewMatcher(opts ...MatcherOption) *Matcher {
	osa, _ := NewScorer(AlgorithmOSA)
	m := &Matcher{
		scorer:    osa,
		threshold: DefaultThreshold,
		states:    canonicalStates,
		suffixes:  DefaultSuffixes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchState returns the state code the token most plausibly denotes.
// An exact code match wins outright; otherwise the first entry in table
// order whose code or uppercased name scores above the threshold.
func (m *Matcher) MatchState(token string) (string, bool) {
	key := foldKey(token)
	if key == "" {
		return "", false
	}
	for _, s := range m.states {
		if key == s.Code {
			return s.Code, true
		}
	}
	for _, s := range m.states {
		if m.scorer.Score(key, s.Code) > m.threshold || m.scorer.Score(key, foldKey(s.Name)) > m.threshold {
			return s.Code, true
		}
	}
	return "", false
}

// CorrectSuffix replaces a misspelled street-type suffix. It reports whether
// the street changed.
func (m *Matcher) CorrectSuffix(street string) (string, bool) {
	tokens := strings.Fields(street)
	if len(tokens) == 0 {
		return street, false
	}
	last := strings.ToUpper(tokens[len(tokens)-1])
	if !isWord(last) {
		return street, false
	}

	best, bestScore := "", m.threshold
	for _, s := range m.suffixes {
		if score := m.scorer.Score(last, s); score > bestScore {
			best, bestScore = s, score
		}
	}
	if best == "" || best == last {
		return street, false
	}

	tokens[len(tokens)-1] = best
	return strings.Join(tokens, " "), true
}

// Refine returns a copy of p with the state resolved to its code and the
// street suffix corrected, plus notes describing what happened.
// An unrecognized state keeps its raw value.
func (m *Matcher) Refine(p ParsedAddress) (ParsedAddress, []string) {
	out := p.Clone()
	var notes []string

	if out.State != nil {
		if code, ok := m.MatchState(*out.State); ok {
			out.State = ptr(code)
		} else {
			notes = append(notes, NoteStateNotRecognized)
		}
	}

	if out.Street != nil {
		if street, changed := m.CorrectSuffix(*out.Street); changed {
			out.Street = ptr(street)
			notes = append(notes, NoteStreetSuffixCorrected)
		}
	}

	return out, notes
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
