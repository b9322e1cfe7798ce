package rules

// Match returns the rules whose Triggers pattern matches trigger, in load
// order. An unmatched trigger returns nil.
func (s *Set) Match(trigger string) []*Rule {
	if s == nil {
		return nil
	}
	var out []*Rule
	for i := range s.rules {
		if s.rules[i].Pattern.Match(trigger) {
			out = append(out, &s.rules[i])
		}
	}
	return out
}
