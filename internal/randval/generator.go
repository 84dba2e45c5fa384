package randval

import (
	"fmt"
	"strings"
	"time"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Date bounds used by Date.
const (
	DateStartYear       = 1970
	DefaultDateEndYear  = 2023
	OverrideDateEndYear = 2025
)

// Generator produces random values from a Source and a set of word pools.
type Generator struct {
	src   Source
	pools Pools
}

// New returns a Generator. Zero-value pools are replaced by DefaultPools.
func New(src Source, pools Pools) *Generator {
	if src == nil {
		src = NewSource()
	}
	return &Generator{src: src, pools: pools.withDefaults()}
}

// Source returns the underlying source.
func (g *Generator) Source() Source {
	return g.src
}

// String returns n random characters from [0-9a-z].
func (g *Generator) String(n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(alphabet[g.src.IntN(len(alphabet))])
	}
	return b.String()
}

// Number returns an integer in [lo, hi]. Swapped bounds are tolerated.
func (g *Generator) Number(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + g.src.IntN(hi-lo+1)
}

// Bool returns true with probability p.
func (g *Generator) Bool(p float64) bool {
	return g.src.Float64() < p
}

// Choose returns one element of options, or "" when options is empty.
func (g *Generator) Choose(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[g.src.IntN(len(options))]
}

// Pick returns k distinct elements of options in pick order. k is clamped
// to [0, len(options)].
func (g *Generator) Pick(options []string, k int) []string {
	k = max(0, min(k, len(options)))
	pool := append([]string(nil), options...)
	picks := make([]string, 0, k)
	for range k {
		idx := g.src.IntN(len(pool))
		picks = append(picks, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return picks
}

// Name returns "First Last".
func (g *Generator) Name() string {
	return g.Choose(g.pools.FirstNames) + " " + g.Choose(g.pools.LastNames)
}

// Email derives a local part from the first word of name; an empty name is
// replaced with a generated one.
func (g *Generator) Email(name string) string {
	if strings.TrimSpace(name) == "" {
		name = g.Name()
	}
	first, _, _ := strings.Cut(strings.TrimSpace(name), " ")
	local := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(first))
	return fmt.Sprintf("%s.%d@%s", local, g.Number(1000, 9999), g.Choose(g.pools.Domains))
}

// Phone returns DDD-DDD-DDDD with no group starting with zero.
func (g *Generator) Phone() string {
	return fmt.Sprintf("%d-%d-%d", g.Number(100, 999), g.Number(100, 999), g.Number(1000, 9999))
}

// Date returns a date between 1970-01-01 and endYear-12-31 as YYYY-MM-DD.
func (g *Generator) Date(endYear int) string {
	start := time.Date(DateStartYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	if !end.After(start) {
		return start.Format(time.DateOnly)
	}
	offset := time.Duration(g.src.Float64() * float64(end.Sub(start)))
	return start.Add(offset).Format(time.DateOnly)
}

// Address returns "<number> <street>, Suite <number>".
func (g *Generator) Address() string {
	return fmt.Sprintf("%d %s, Suite %d", g.Number(1, 9999), g.Choose(g.pools.Streets), g.Number(100, 999))
}
