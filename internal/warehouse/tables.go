package warehouse

import (
	"regexp"
	"strings"
)

// Identifier with up to three dotted parts: table, schema.table, db.schema.table.
const identPattern = `([a-z_][a-z0-9_$]*(?:\.[a-z_][a-z0-9_$]*){0,2})`

var tableRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`from\s+` + identPattern),
	regexp.MustCompile(`join\s+` + identPattern),
	regexp.MustCompile(`insert\s+into\s+` + identPattern),
	regexp.MustCompile(`merge\s+into\s+` + identPattern),
	regexp.MustCompile(`copy\s+into\s+` + identPattern),
	regexp.MustCompile(`update\s+` + identPattern),
	regexp.MustCompile(`delete\s+from\s+` + identPattern),
	regexp.MustCompile(`create\s+(?:or\s+replace\s+)?table\s+(?:if\s+not\s+exists\s+)?` + identPattern),
}

// extractTables extracts table references from SQL query text.
func extractTables(query string) []string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil
	}

	seen := make(map[string]bool)
	var result []string

	for _, pattern := range tableRefPatterns {
		for _, match := range pattern.FindAllStringSubmatch(normalized, -1) {
			if len(match) < 2 {
				continue
			}
			name := match[1]
			if seen[name] {
				continue
			}
			seen[name] = true
			result = append(result, name)
		}
	}

	return result
}
