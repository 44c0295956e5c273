package roomgraph

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// String encodes a Plan the way the oracle's /explore endpoint expects:
// a concatenation of digit characters 0..Doors-1 for Edge steps and
// bracketed digits [0]..[Labels-1] for Rewrite steps.
func (p Plan) String() string {
	var b strings.Builder
	for _, s := range p {
		b.WriteString(s.String())
	}
	return b.String()
}

// ParsePlan decodes a plan string produced by Plan.String. It is the
// inverse used by the in-process test oracle, which only ever receives
// strings over the wire, exactly like the real remote oracle would.
func ParsePlan(s string) (Plan, error) {
	var plan Plan
	i := 0
	for i < len(s) {
		switch {
		case s[i] == '[':
			j := strings.IndexByte(s[i:], ']')
			if j < 0 {
				return nil, errors.Errorf("plan %q: unterminated rewrite token at offset %d", s, i)
			}
			digits := s[i+1 : i+j]
			l, err := strconv.Atoi(digits)
			if err != nil {
				return nil, errors.Wrapf(err, "plan %q: invalid rewrite label %q", s, digits)
			}
			if l < 0 || l >= Labels {
				return nil, errors.Errorf("plan %q: rewrite label %d out of range", s, l)
			}
			plan = append(plan, Rewrite(l))
			i += j + 1
		case s[i] >= '0' && s[i] <= '9':
			d := int(s[i] - '0')
			if d >= Doors {
				return nil, errors.Errorf("plan %q: door %d out of range at offset %d", s, d, i)
			}
			plan = append(plan, Edge(d))
			i++
		default:
			return nil, errors.Errorf("plan %q: unexpected character %q at offset %d", s, s[i], i)
		}
	}
	return plan, nil
}

// PlanStrings encodes a batch of plans for the /explore request body.
func PlanStrings(plans []Plan) []string {
	out := make([]string, len(plans))
	for i, p := range plans {
		out[i] = p.String()
	}
	return out
}
