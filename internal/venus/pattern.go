package venus

import (
	"fmt"
	"regexp"
	"strings"
)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segWildcard
	segPlaceholder
)

type patternSegment struct {
	kind segmentKind
	// literal text or placeholder name
	text string
}

var placeholderNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var templateRefRe = regexp.MustCompile(`\{([^{}]*)\}`)

func templateRefs(template string) []string {
	matches := templateRefRe.FindAllStringSubmatch(template, -1)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, m[1])
	}
	return refs
}

// CompiledPattern is the matchable form of one descriptor's topic.
// Compilation happens once at registry build time; matching allocates
// only on success.
type CompiledPattern struct {
	Descriptor *TopicDescriptor

	segments     []patternSegment
	literals     int
	placeholders int
}

func compilePattern(d *TopicDescriptor) (*CompiledPattern, error) {
	if d.Topic == "" {
		return nil, fmt.Errorf("descriptor %q: empty topic", d.ShortID)
	}
	raw := strings.Split(d.Topic, "/")
	p := &CompiledPattern{
		Descriptor: d,
		segments:   make([]patternSegment, 0, len(raw)),
	}
	seen := make(map[string]bool)
	for i, s := range raw {
		switch {
		case s == "":
			return nil, fmt.Errorf("descriptor %q: empty segment %d in %q", d.ShortID, i, d.Topic)
		case s == "+":
			p.segments = append(p.segments, patternSegment{kind: segWildcard})
		case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
			name := s[1 : len(s)-1]
			if !placeholderNameRe.MatchString(name) {
				return nil, fmt.Errorf("descriptor %q: invalid placeholder %q", d.ShortID, s)
			}
			if seen[name] {
				return nil, fmt.Errorf("descriptor %q: placeholder %q repeated", d.ShortID, s)
			}
			seen[name] = true
			p.segments = append(p.segments, patternSegment{kind: segPlaceholder, text: name})
			p.placeholders++
		case strings.ContainsAny(s, "{}#+"):
			return nil, fmt.Errorf("descriptor %q: malformed segment %q", d.ShortID, s)
		default:
			p.segments = append(p.segments, patternSegment{kind: segLiteral, text: s})
			p.literals++
		}
	}
	// ShortID and Name may only reference placeholders the topic binds,
	// plus next_phase which derives from phase.
	for _, tpl := range []string{d.ShortID, d.Name} {
		for _, ref := range templateRefs(tpl) {
			if seen[ref] {
				continue
			}
			if ref == "next_phase" && seen["phase"] {
				continue
			}
			return nil, fmt.Errorf("descriptor %q: template references unbound placeholder {%s}", d.ShortID, ref)
		}
	}
	return p, nil
}

// specificity orders candidates of equal segment count: every literal
// outweighs any number of placeholders, every placeholder outweighs any
// number of wildcards. Segment counts never exceed the shifted width.
func (p *CompiledPattern) specificity() int {
	return p.literals<<8 | p.placeholders
}

func (p *CompiledPattern) match(segments []string) (map[string]string, bool) {
	if len(segments) != len(p.segments) {
		return nil, false
	}
	var bindings map[string]string
	for i, ps := range p.segments {
		switch ps.kind {
		case segLiteral:
			if segments[i] != ps.text {
				return nil, false
			}
		case segPlaceholder:
			if bindings == nil {
				bindings = make(map[string]string, p.placeholders+1)
			}
			bindings[ps.text] = segments[i]
		}
	}
	return bindings, true
}

// SubscriptionFilter is the MQTT filter covering every topic this
// pattern can match: placeholders widen to `+`.
func (p *CompiledPattern) SubscriptionFilter() string {
	parts := make([]string, len(p.segments))
	for i, ps := range p.segments {
		if ps.kind == segLiteral {
			parts[i] = ps.text
		} else {
			parts[i] = "+"
		}
	}
	return strings.Join(parts, "/")
}

// Match is the result of dispatching one concrete topic.
type Match struct {
	Pattern  *CompiledPattern
	Topic    string
	Segments []string
	Bindings map[string]string
}

func (m *Match) Descriptor() *TopicDescriptor {
	return m.Pattern.Descriptor
}

// Rebuild reconstructs the matched topic from the pattern, the captured
// bindings and the wildcard segments. It always reproduces Topic.
func (m *Match) Rebuild() string {
	parts := make([]string, len(m.Segments))
	for i, ps := range m.Pattern.segments {
		switch ps.kind {
		case segLiteral:
			parts[i] = ps.text
		case segPlaceholder:
			parts[i] = m.Bindings[ps.text]
		default:
			parts[i] = m.Segments[i]
		}
	}
	return strings.Join(parts, "/")
}

// WriteTopic is the matched topic with the direction segment replaced
// by the descriptor's write marker.
func (m *Match) WriteTopic() string {
	parts := make([]string, len(m.Segments))
	copy(parts, m.Segments)
	parts[0] = m.Pattern.Descriptor.writeMarker()
	return strings.Join(parts, "/")
}

// phaseRotation drives the derived next_phase binding.
var phaseRotation = map[string]string{
	"L1": "L2",
	"L2": "L3",
	"L3": "L1",
}

func deriveBindings(bindings map[string]string) map[string]string {
	phase, ok := bindings["phase"]
	if !ok {
		return bindings
	}
	next, ok := phaseRotation[phase]
	if !ok {
		return bindings
	}
	bindings["next_phase"] = next
	return bindings
}

// Substitute replaces {name} references in a template with their
// bound values. Unbound references are left untouched.
func Substitute(template string, bindings map[string]string) string {
	if !strings.Contains(template, "{") {
		return template
	}
	out := template
	for name, value := range bindings {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}

// Registry holds the compiled descriptor table, bucketed by segment
// count. It is immutable after NewRegistry and safe for concurrent use.
type Registry struct {
	buckets  map[int][]*CompiledPattern
	patterns []*CompiledPattern
}

func NewRegistry(descriptors []TopicDescriptor) (*Registry, error) {
	r := &Registry{
		buckets:  make(map[int][]*CompiledPattern),
		patterns: make([]*CompiledPattern, 0, len(descriptors)),
	}
	for i := range descriptors {
		p, err := compilePattern(&descriptors[i])
		if err != nil {
			return nil, err
		}
		r.buckets[len(p.segments)] = append(r.buckets[len(p.segments)], p)
		r.patterns = append(r.patterns, p)
	}
	return r, nil
}

func (r *Registry) Len() int {
	return len(r.patterns)
}

// Match dispatches one concrete topic. Among matching candidates the
// highest specificity wins; equal specificity resolves to the earliest
// registered descriptor. Returns nil when nothing matches.
func (r *Registry) Match(topic string) *Match {
	segments := strings.Split(topic, "/")
	var (
		best         *CompiledPattern
		bestBindings map[string]string
	)
	for _, p := range r.buckets[len(segments)] {
		bindings, ok := p.match(segments)
		if !ok {
			continue
		}
		if best == nil || p.specificity() > best.specificity() {
			best = p
			bestBindings = bindings
		}
	}
	if best == nil {
		return nil
	}
	if bestBindings == nil {
		bestBindings = map[string]string{}
	}
	return &Match{
		Pattern:  best,
		Topic:    topic,
		Segments: segments,
		Bindings: deriveBindings(bestBindings),
	}
}

// SubscriptionFilters returns the deduplicated MQTT filters covering
// every registered pattern, in registration order.
func (r *Registry) SubscriptionFilters() []string {
	seen := make(map[string]bool, len(r.patterns))
	filters := make([]string, 0, len(r.patterns))
	for _, p := range r.patterns {
		f := p.SubscriptionFilter()
		if seen[f] {
			continue
		}
		seen[f] = true
		filters = append(filters, f)
	}
	return filters
}
