package config

import (
	"path"
	"strings"
)

// Normalize lowercases and trims exclusion patterns and drops empty entries.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.ExcludeTables = cleanPatterns(c.ExcludeTables)
	c.ExcludeDatabases = cleanPatterns(c.ExcludeDatabases)
}

// IsDatabaseExcluded reports whether the database name matches any
// exclude_databases pattern.
func (c *Config) IsDatabaseExcluded(database string) bool {
	if c == nil {
		return false
	}
	return matchAny(c.ExcludeDatabases, canonical(database))
}

// IsTableExcluded reports whether a table reference matches the exclusion
// lists. Patterns are tried against both the full dotted name and the bare
// table segment, and the leading segment is checked against the database
// exclusions.
func (c *Config) IsTableExcluded(fullName string) bool {
	if c == nil {
		return false
	}

	name := canonical(fullName)
	if name == "" {
		return false
	}

	if database, rest, ok := strings.Cut(name, "."); ok {
		if c.IsDatabaseExcluded(database) {
			return true
		}
		if bare := rest[strings.LastIndex(rest, ".")+1:]; matchAny(c.ExcludeTables, bare) {
			return true
		}
	}

	return matchAny(c.ExcludeTables, name)
}

func matchAny(patterns []string, value string) bool {
	if value == "" {
		return false
	}
	for _, pattern := range patterns {
		pattern = canonical(pattern)
		if pattern == "" {
			continue
		}
		matched, err := path.Match(pattern, value)
		if err != nil {
			// Malformed glob, compare literally.
			matched = pattern == value
		}
		if matched {
			return true
		}
	}
	return false
}

func cleanPatterns(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if p := canonical(v); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

func canonical(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
