package keymap

import "slices"

// Resolver turns bubbletea key strings ("q", "ctrl+c", " ") into control
// surface actions. A key bound twice resolves to the later binding.
type Resolver struct {
	actions map[string]Action
	keys    map[Action][]string
}

// NewResolver indexes bindings in both directions.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		actions: make(map[string]Action),
		keys:    make(map[Action][]string),
	}
	for _, b := range bindings {
		for _, key := range b.Keys {
			r.actions[key] = b.Action
		}
		r.keys[b.Action] = dedupe(append(r.keys[b.Action], b.Keys...))
	}
	return r
}

// Resolve returns the action bound to key, or "" when the key does nothing.
func (r *Resolver) Resolve(key string) Action {
	return r.actions[key]
}

// KeysFor lists the keys that trigger action, in binding order.
func (r *Resolver) KeysFor(action Action) []string {
	return r.keys[action]
}

// dedupe keeps the first occurrence of every key.
func dedupe(keys []string) []string {
	out := keys[:0:0]
	for _, k := range keys {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}
