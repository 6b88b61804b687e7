// Package env provides an explicit, injectable view of the process
// environment. Bootstrap code reads and writes through an Environment value
// instead of mutating process globals, so override semantics stay visible and
// tests can run against an isolated map.
package env

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

// Environment holds environment variables as an explicit key/value view.
// Writes mutate only the Environment, never the process environment; the
// snapshot is handed to child processes via Environ.
type Environment struct {
	vars map[string]string
}

// System returns an Environment seeded from the current process environment.
func System() *Environment {
	e := &Environment{vars: make(map[string]string)}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			e.vars[k] = v
		}
	}
	return e
}

// FromMap returns an Environment seeded from the given map. The map is
// copied; later changes to it are not reflected.
func FromMap(vars map[string]string) *Environment {
	e := &Environment{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

// Lookup returns the value bound to key and whether the binding exists.
func (e *Environment) Lookup(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Get returns the value bound to key, or the empty string when unbound.
func (e *Environment) Get(key string) string {
	return e.vars[key]
}

// Set unconditionally binds key to value.
func (e *Environment) Set(key, value string) {
	e.vars[key] = value
}

// SetUnlessPresent binds key to value only when key has no existing binding.
// It reports whether the new value was applied; false means an ambient
// binding won and was left untouched.
func (e *Environment) SetUnlessPresent(key, value string) bool {
	if _, ok := e.vars[key]; ok {
		return false
	}
	e.vars[key] = value
	return true
}

// Bool parses the value bound to key as a boolean, returning def when the
// key is unbound or the value does not parse.
func (e *Environment) Bool(key string, def bool) bool {
	v, ok := e.vars[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Int parses the value bound to key as an integer, returning def when the
// key is unbound or the value does not parse.
func (e *Environment) Int(key string, def int) int {
	v, ok := e.vars[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Environ returns the bindings as a sorted "key=value" slice, suitable for
// exec.Cmd.Env.
func (e *Environment) Environ() []string {
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
