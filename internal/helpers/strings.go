package helpers

import "strings"

// SplitList splits a comma separated value, trimming blanks and dropping
// empty and repeated items. Order is kept.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// JoinList is the inverse of SplitList for storage in a text column.
func JoinList(items []string) string {
	return strings.Join(items, ",")
}
