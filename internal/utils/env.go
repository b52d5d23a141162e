package utils

import (
	"sort"
	"strings"
)

// EnvMap parses KEY=VALUE pairs, as returned by os.Environ, into a map. Later
// duplicates win. Entries without "=" are dropped.
func EnvMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// EnvList is the inverse of EnvMap. Keys are sorted so the output is stable.
func EnvList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k+"="+env[k])
	}
	return list
}
