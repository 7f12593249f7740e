package rule

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule describes how to build targets matching Target.
// Target may contain one '%' stem wildcard, make style: "%.o" matches
// "main.o" with stem "main". Deps may reference the stem with '%' and
// Recipe lines are run through the shell, one after another.
type Rule struct {
	Target string   `yaml:"target"`
	Deps   []string `yaml:"deps"`
	Recipe []string `yaml:"recipe"`
}

// IsPattern reports whether the rule's target has a stem wildcard.
func (r *Rule) IsPattern() bool {
	return strings.Contains(r.Target, "%")
}

// Match checks the rule against a target name.
// For a pattern rule it returns the stem and whether it matched.
// For an explicit rule the stem is always empty.
func (r *Rule) Match(target string) (stem string, ok bool) {
	if !r.IsPattern() {
		return "", r.Target == target
	}
	i := strings.Index(r.Target, "%")
	prefix := r.Target[:i]
	suffix := r.Target[i+1:]
	if len(target) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(target, prefix) || !strings.HasSuffix(target, suffix) {
		return "", false
	}
	return target[len(prefix) : len(target)-len(suffix)], true
}

// DepsFor returns the rule's dependencies with the stem substituted in.
func (r *Rule) DepsFor(stem string) []string {
	deps := make([]string, len(r.Deps))
	for i, d := range r.Deps {
		deps[i] = strings.ReplaceAll(d, "%", stem)
	}
	return deps
}

// Set is a loaded rule file: the rules in file order plus the
// variables available to recipes.
type Set struct {
	Rules []*Rule           `yaml:"rules"`
	Vars  map[string]string `yaml:"vars"`
}

// Load reads a YAML rule file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Set{}
	err = yaml.Unmarshal(data, s)
	if err != nil {
		return nil, fmt.Errorf("parse %v: %v", path, err)
	}
	err = s.validate()
	if err != nil {
		return nil, fmt.Errorf("%v: %v", path, err)
	}
	return s, nil
}

func (s *Set) validate() error {
	if len(s.Rules) == 0 {
		return fmt.Errorf("no rules")
	}
	for i, r := range s.Rules {
		if r.Target == "" {
			return fmt.Errorf("rule %d: empty target", i)
		}
		if strings.Count(r.Target, "%") > 1 {
			return fmt.Errorf("rule %d: more than one %% in target: %v", i, r.Target)
		}
		if !r.IsPattern() {
			for _, d := range r.Deps {
				if strings.Contains(d, "%") {
					return fmt.Errorf("rule %d: stem in dep of explicit rule: %v", i, d)
				}
			}
		}
	}
	return nil
}

// Match finds the rule for a target.
// Explicit rules take precedence over pattern rules; within each kind
// the first matching rule in file order wins.
func (s *Set) Match(target string) (r *Rule, stem string, ok bool) {
	for _, r := range s.Rules {
		if r.IsPattern() {
			continue
		}
		if _, ok := r.Match(target); ok {
			return r, "", true
		}
	}
	for _, r := range s.Rules {
		if !r.IsPattern() {
			continue
		}
		if stem, ok := r.Match(target); ok {
			return r, stem, true
		}
	}
	return nil, "", false
}

// Expand expands one recipe line.
// It knows the automatic variables $@ (target), $< (first dep),
// $^ (all deps), $* (stem), named variables as $(NAME), and $$ for a
// literal dollar. Unknown named variables expand to nothing.
func (s *Set) Expand(line, target string, deps []string, stem string) string {
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(line) {
			b.WriteByte(c)
			break
		}
		i++
		switch line[i] {
		case '$':
			b.WriteByte('$')
		case '@':
			b.WriteString(target)
		case '<':
			if len(deps) > 0 {
				b.WriteString(deps[0])
			}
		case '^':
			b.WriteString(strings.Join(deps, " "))
		case '*':
			b.WriteString(stem)
		case '(':
			end := strings.Index(line[i:], ")")
			if end < 0 {
				b.WriteString(line[i-1:])
				return b.String()
			}
			b.WriteString(s.Vars[line[i+1:i+end]])
			i += end
		default:
			b.WriteByte('$')
			b.WriteByte(line[i])
		}
	}
	return b.String()
}
