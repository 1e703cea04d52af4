package repo

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoreFile is the per-repository ignore file at the work tree root.
const IgnoreFile = ".fluxignore"

// IgnoreChecker determines if a work-tree path should be left out of add
// and hash-object walks.
type IgnoreChecker struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	hasSlash bool // pattern contains a slash, so match against full path
	regex    *regexp.Regexp
}

// NewIgnoreChecker loads .fluxignore from workTree if present. The metadata
// directory is always ignored.
func NewIgnoreChecker(workTree string) *IgnoreChecker {
	ic := &IgnoreChecker{
		patterns: []ignorePattern{{pattern: MetaDirName, dirOnly: true}},
	}

	f, err := os.Open(filepath.Join(workTree, IgnoreFile))
	if err != nil {
		return ic
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p := parseIgnoreLine(scanner.Text()); p != nil {
			ic.patterns = append(ic.patterns, *p)
		}
	}
	return ic
}

// parseIgnoreLine parses a single line from an ignore file. Returns nil for
// blank lines and comments.
func parseIgnoreLine(line string) *ignorePattern {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := &ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return nil
	}

	p.hasSlash = strings.Contains(line, "/")
	p.pattern = line
	if strings.Contains(line, "**") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			p.regex = re
		}
	}
	return p
}

// IsIgnored reports whether rel (slash-separated, relative to the work tree)
// is ignored. The last matching pattern wins, so negations can re-include.
// A path under an ignored directory is ignored too.
func (ic *IgnoreChecker) IsIgnored(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	ignored := false
	for _, p := range ic.patterns {
		if p.matches(rel, isDir) {
			ignored = !p.negated
		}
	}
	return ignored
}

func (p *ignorePattern) matches(rel string, isDir bool) bool {
	// Any ancestor directory matching the pattern covers rel as well.
	segments := strings.Split(rel, "/")
	for i := 1; i <= len(segments); i++ {
		candidate := strings.Join(segments[:i], "/")
		candidateIsDir := i < len(segments) || isDir
		if p.dirOnly && !candidateIsDir {
			continue
		}
		if p.matchOne(candidate) {
			return true
		}
	}
	return false
}

func (p *ignorePattern) matchOne(candidate string) bool {
	target := candidate
	if !p.hasSlash {
		target = path.Base(candidate)
	}
	if p.regex != nil {
		return p.regex.MatchString(target)
	}
	matched, _ := path.Match(p.pattern, target)
	return matched
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch == '*' {
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					// Globstar directory segment: zero or more path segments.
					b.WriteString("(?:.*/)?")
					i += 2
				} else {
					b.WriteString(".*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
			continue
		}
		if ch == '?' {
			b.WriteString("[^/]")
			continue
		}
		if strings.ContainsRune(`.+()|[]{}^$\`, rune(ch)) {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
	b.WriteString("$")
	return b.String()
}
