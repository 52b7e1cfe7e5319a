package app

import "strings"

// ProviderSelection merges the --providers flag value (comma separated) with
// positional provider names. Order is kept and blanks are dropped; an empty
// result selects every provider.
func ProviderSelection(flag string, args []string) []string {
	var selected []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		selected = append(selected, name)
	}
	for _, name := range strings.Split(flag, ",") {
		add(name)
	}
	for _, name := range args {
		add(name)
	}
	return selected
}
