package utils

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// UIDGenerator creates readable IDs from seeds and resolves collisions.
// A generated UID shape is "<prefix>-<slug>-<hash>", with "-N" appended on
// collision. It is safe for concurrent use.
type UIDGenerator struct {
	mu     sync.Mutex
	prefix string
	used   map[string]struct{}
	count  map[string]int
}

// NewUIDGenerator creates a generator whose IDs start with prefix. existing
// IDs are reserved.
func NewUIDGenerator(prefix string, existing ...string) *UIDGenerator {
	g := &UIDGenerator{
		prefix: slugifyASCII(prefix),
		used:   make(map[string]struct{}, len(existing)+8),
		count:  make(map[string]int, len(existing)+8),
	}
	for _, uid := range existing {
		if uid = strings.TrimSpace(uid); uid != "" {
			g.used[uid] = struct{}{}
		}
	}
	return g
}

// Generate returns a unique UID for seed.
func (g *UIDGenerator) Generate(seed string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.claim(g.base(seed))
}

// Reserve claims name verbatim, or "<name>-N" when name is already taken.
// Generated and reserved names share one namespace.
func (g *UIDGenerator) Reserve(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.claim(name)
}

func (g *UIDGenerator) claim(base string) string {
	if _, ok := g.used[base]; !ok {
		g.used[base] = struct{}{}
		g.count[base] = 1
		return base
	}
	n := max(g.count[base], 1)
	for {
		n++
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, exists := g.used[candidate]; exists {
			continue
		}
		g.used[candidate] = struct{}{}
		g.count[base] = n
		return candidate
	}
}

func (g *UIDGenerator) base(seed string) string {
	seed = strings.TrimSpace(seed)
	slug := slugifyASCII(seed)
	if slug == "" {
		slug = "run"
	}
	uid := fmt.Sprintf("%s-%s", slug, shortHashHex(seed))
	if g.prefix != "" {
		uid = g.prefix + "-" + uid
	}
	return uid
}

func shortHashHex(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%08x", uint32(h.Sum64()&0xffffffff))
}

func slugifyASCII(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

var fileNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SafeFileName maps name to a string usable as a single path element.
func SafeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = fileNameSanitizer.ReplaceAllString(name, "_")
	name = strings.Trim(name, ".")
	if name == "" {
		return "unknown"
	}
	return name
}

// Stem returns the last path element of p without its extension.
func Stem(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.LastIndex(p, "."); i > 0 {
		p = p[:i]
	}
	return p
}
