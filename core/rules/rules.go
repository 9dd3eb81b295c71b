// Package rules holds the named regular expressions applied to each scanned file.
package rules

import (
	"crypto/sha256"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/huangsam/patternscan/schema"
	"gopkg.in/yaml.v3"
)

// Rule is a named, compiled expression.
type Rule struct {
	Name string
	Expr *regexp.Regexp
}

// Group is an ordered list of rules under a pattern category name.
type Group struct {
	Name  string
	Rules []Rule
}

// RuleSet is the ordered table of pattern categories used by the matcher.
// It is immutable once built and safe for concurrent use.
type RuleSet struct {
	groups      []Group
	fingerprint string
}

// Definition is the serialized form of a rule set, as found in a rules file.
type Definition struct {
	Categories []GroupDefinition `yaml:"categories"`
}

// GroupDefinition is one pattern category of a rules file.
type GroupDefinition struct {
	Name     string           `yaml:"name"`
	Patterns []RuleDefinition `yaml:"patterns"`
}

// RuleDefinition is one named expression of a rules file.
type RuleDefinition struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// DefaultDefinition is the built-in Nuxt pattern table.
var DefaultDefinition = Definition{
	Categories: []GroupDefinition{
		{Name: "componentPatterns", Patterns: []RuleDefinition{
			{"sharedProps", `defineProps<.*>`},
			{"sharedEmits", `defineEmits<.*>`},
			{"composableUsage", `use[A-Z][a-zA-Z]*`},
			{"computedProperties", `computed\(`},
			{"watchEffects", `watch(Effect)?\(`},
		}},
		{Name: "apiPatterns", Patterns: []RuleDefinition{
			{"routeHandlers", `export\s+default\s+defineEventHandler`},
			{"middleware", `export\s+default\s+defineNuxtRouteMiddleware`},
			{"validation", `z\.(string|number|object|array)`},
			{"authChecks", `(?i)(jwt|auth|token|session)`},
			{"dbQueries", `(?i)(prisma|db|query|select|findMany)`},
		}},
		{Name: "pagePatterns", Patterns: []RuleDefinition{
			{"layoutUsage", `definePageMeta.*layout`},
			{"seoMeta", `useSeoMeta|useHead`},
			{"dataFetching", `useFetch|useLazyFetch|\$fetch`},
			{"navigation", `navigateTo|useRouter`},
			{"stateManagement", `useState|usePinia`},
		}},
		{Name: "performancePatterns", Patterns: []RuleDefinition{
			{"lazyLoading", `defineAsyncComponent|Suspense`},
			{"dynamicImports", `import\(`},
			{"imageOptimization", `<NuxtImg|<NuxtPicture`},
			{"caching", `cachedFunction|cached`},
			{"compression", `compress|gzip|br`},
		}},
	},
}

var defaultRuleSet = MustCompile(DefaultDefinition)

// Default returns the built-in Nuxt rule set.
func Default() *RuleSet {
	return defaultRuleSet
}

// MustCompile is like Compile but panics on error. It is meant for static tables.
func MustCompile(def Definition) *RuleSet {
	rs, err := Compile(def)
	if err != nil {
		panic(err)
	}
	return rs
}

// Compile validates a definition and compiles every expression.
func Compile(def Definition) (*RuleSet, error) {
	if len(def.Categories) == 0 {
		return nil, fmt.Errorf("rule set has no categories")
	}

	h := sha256.New()
	seenGroups := make(map[string]struct{}, len(def.Categories))
	groups := make([]Group, 0, len(def.Categories))
	for _, gd := range def.Categories {
		name := strings.TrimSpace(gd.Name)
		if name == "" {
			return nil, fmt.Errorf("rule category without a name")
		}
		if _, dup := seenGroups[name]; dup {
			return nil, fmt.Errorf("duplicate rule category %q", name)
		}
		seenGroups[name] = struct{}{}

		group := Group{Name: name, Rules: make([]Rule, 0, len(gd.Patterns))}
		seenRules := make(map[string]struct{}, len(gd.Patterns))
		for _, rd := range gd.Patterns {
			ruleName := strings.TrimSpace(rd.Name)
			if ruleName == "" {
				return nil, fmt.Errorf("rule without a name in category %q", name)
			}
			if _, dup := seenRules[ruleName]; dup {
				return nil, fmt.Errorf("duplicate rule %q", schema.PatternKey(name, ruleName))
			}
			seenRules[ruleName] = struct{}{}
			if rd.Expr == "" {
				return nil, fmt.Errorf("rule %q has an empty expression", schema.PatternKey(name, ruleName))
			}
			re, err := regexp.Compile(rd.Expr)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", schema.PatternKey(name, ruleName), err)
			}
			group.Rules = append(group.Rules, Rule{Name: ruleName, Expr: re})
			_, _ = fmt.Fprintf(h, "%s\x00%s\x00%s\n", name, ruleName, rd.Expr)
		}
		groups = append(groups, group)
	}

	return &RuleSet{groups: groups, fingerprint: fmt.Sprintf("%x", h.Sum(nil))}, nil
}

// LoadFile reads a YAML rules file and compiles it.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read rules file: %w", err)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("cannot parse rules file %s: %w", path, err)
	}
	rs, err := Compile(def)
	if err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rs, nil
}

// Load returns the rule set from path, or the default table when path is empty.
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Groups returns the ordered pattern categories.
func (rs *RuleSet) Groups() []Group {
	return rs.groups
}

// Fingerprint identifies the rule set contents. It is part of every scan cache key.
func (rs *RuleSet) Fingerprint() string {
	return rs.fingerprint
}

// Size returns the total number of rules.
func (rs *RuleSet) Size() int {
	n := 0
	for _, g := range rs.groups {
		n += len(g.Rules)
	}
	return n
}

// Match applies every rule to content. The result only holds rules with at
// least one match; each hit keeps up to schema.MaxFileExamples distinct
// examples in first-seen order.
func (rs *RuleSet) Match(content string) map[string]map[string]schema.PatternHit {
	hits := make(map[string]map[string]schema.PatternHit)
	for _, g := range rs.groups {
		for _, r := range g.Rules {
			matches := r.Expr.FindAllString(content, -1)
			if len(matches) == 0 {
				continue
			}
			if hits[g.Name] == nil {
				hits[g.Name] = make(map[string]schema.PatternHit)
			}
			hits[g.Name][r.Name] = schema.PatternHit{
				Count:    len(matches),
				Examples: firstDistinct(matches, schema.MaxFileExamples),
			}
		}
	}
	return hits
}

// firstDistinct returns up to limit distinct values in first-seen order.
func firstDistinct(values []string, limit int) []string {
	out := make([]string, 0, min(limit, len(values)))
	for _, v := range values {
		if len(out) == limit {
			break
		}
		dup := false
		for _, o := range out {
			if o == v {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}
