// Package rxp wraps Go's RE2 engine (package regexp) to present the
// compile-once/match-per-transaction contract spec.md §4.9 describes for
// PCRE2: a config-scoped compiled Pattern, and a context-scoped MatchState
// holding distinct "active" and "working" match buffers so an in-progress
// comparison attempt (e.g. inside an any-of combinator) never clobbers the
// capture state a prior sibling already committed.
//
// RE2 cannot express PCRE2 backreferences or lookaround assertions; this is
// an accepted subset (DESIGN.md) since the spec treats PCRE2 itself as an
// external collaborator specified only by its interface, and no PCRE2
// binding appears anywhere in the retrieval pack.
package rxp

import "regexp"

// Pattern is a compiled, config-scoped regular expression plus its declared
// capture-group count (group 0, the whole match, included).
type Pattern struct {
	re     *regexp.Regexp
	ncap   int
	source string
}

// Compile compiles src. caseInsensitive mirrors the `nc` option flag string
// comparisons and `rxp` carry (spec.md §4.5).
func Compile(src string, caseInsensitive bool) (*Pattern, error) {
	pat := src
	if caseInsensitive {
		pat = "(?i)" + pat
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re, ncap: re.NumSubexp() + 1, source: src}, nil
}

// Groups is the number of capture groups this pattern declares, including
// group 0 — the floor spec.md §4.9/§8 requires Config.capture_groups to meet.
func (p *Pattern) Groups() int { return p.ncap }

func (p *Pattern) Source() string { return p.source }

// MatchData is a single match result: the subject it was matched against and
// the byte-offset span of each capture group (group 0 is the whole match).
// A group that did not participate has a nil Spans entry, mirroring a PCRE2
// ovector slot of (-1,-1).
type MatchData struct {
	Subject []byte
	Spans   [][2]int
}

func (m *MatchData) valid() bool { return m != nil && m.Subject != nil }

// Group returns the byte span of capture group k, or false if the group did
// not participate or is out of range.
func (m *MatchData) Group(k int) ([]byte, bool) {
	if !m.valid() || k < 0 || k >= len(m.Spans) {
		return nil, false
	}
	sp := m.Spans[k]
	if sp[0] < 0 {
		return nil, false
	}
	return m.Subject[sp[0]:sp[1]], true
}

// MatchState is the context-scoped pair of match buffers spec.md §4.9
// requires: Working receives the in-progress comparison's attempt; Active
// holds the last successfully committed match, readable by capture-group
// extraction ({1}, {2}, ...) for the remainder of the enclosing scope.
type MatchState struct {
	Working *MatchData
	Active  *MatchData
	// RxpSrc is the subject of the most recently committed match — distinct
	// from Active.Subject only in that it survives a subsequent failed
	// match attempt that overwrote Working but never committed.
	RxpSrc []byte
}

// NewMatchState allocates a MatchState with buffers sized for `groups`
// capture groups (spec.md §4.9: "two match buffers... sized for
// capture_groups").
func NewMatchState(groups int) *MatchState {
	return &MatchState{
		Working: &MatchData{Spans: make([][2]int, groups)},
		Active:  &MatchData{Spans: make([][2]int, groups)},
	}
}

// Resize grows both buffers to at least `groups` capture groups, used when a
// remap rule's config requires more groups than the Context was originally
// sized for (spec.md §4.9).
func (s *MatchState) Resize(groups int) {
	if len(s.Working.Spans) < groups {
		s.Working.Spans = make([][2]int, groups)
	}
	if len(s.Active.Spans) < groups {
		s.Active.Spans = make([][2]int, groups)
	}
}

// Match runs p against subject, writing the result into Working and
// reporting whether it matched. It does not touch Active — call CommitMatch
// to promote a successful attempt.
func (s *MatchState) Match(p *Pattern, subject []byte) bool {
	loc := p.re.FindSubmatchIndex(subject)
	if loc == nil {
		s.Working.Subject = nil
		return false
	}
	s.Resize(len(loc) / 2)
	s.Working.Subject = subject
	for i := 0; i < len(s.Working.Spans); i++ {
		if 2*i+1 < len(loc) && loc[2*i] >= 0 {
			s.Working.Spans[i] = [2]int{loc[2*i], loc[2*i+1]}
		} else {
			s.Working.Spans[i] = [2]int{-1, -1}
		}
	}
	return true
}

// CommitMatch promotes Working into Active and records the subject, per
// spec.md §4.9's rxp_commit_match. Only a successful child of an any-of
// combinator should call this (spec.md §9's two-phase commit note).
func (s *MatchState) CommitMatch(subject []byte) {
	s.Active, s.Working = s.Working, s.Active
	s.RxpSrc = subject
}

// SetLiteralCapture installs a synthetic capture group 0 for a non-regex
// string comparison (match/prefix/suffix/...), per spec.md §4.9.
func (s *MatchState) SetLiteralCapture(text []byte) {
	s.Resize(1)
	s.Active.Subject = text
	s.Active.Spans[0] = [2]int{0, len(text)}
	s.RxpSrc = text
}

// Group reads capture group k from the active match buffer.
func (s *MatchState) Group(k int) ([]byte, bool) {
	return s.Active.Group(k)
}

// RequiredCaptureGroups is `max(1, required)`, matching Config's
// capture_groups rule in spec.md §4.9.
func RequiredCaptureGroups(required int) int {
	if required < 1 {
		return 1
	}
	return required
}
