package search

import "reflect"

// Middleware rewrites the search of a location being built. current is the
// search of the location navigated from; next produces the destination search.
type Middleware func(current map[string]any, next func(map[string]any) map[string]any) map[string]any

// Run applies mws in order around final.
func Run(mws []Middleware, current map[string]any, final func(map[string]any) map[string]any) map[string]any {
	var step func(i int, s map[string]any) map[string]any
	step = func(i int, s map[string]any) map[string]any {
		if i == len(mws) {
			return final(s)
		}
		return mws[i](s, func(in map[string]any) map[string]any {
			return step(i+1, in)
		})
	}
	return step(0, current)
}

// Retain carries the given keys over from the current search when the
// destination does not set them.
func Retain(keys ...string) Middleware {
	return func(current map[string]any, next func(map[string]any) map[string]any) map[string]any {
		out := clone(next(current))
		for _, k := range keys {
			if _, ok := out[k]; ok {
				continue
			}
			if v, ok := current[k]; ok {
				out[k] = v
			}
		}
		return out
	}
}

// RetainAll carries every current key the destination does not set.
func RetainAll() Middleware {
	return func(current map[string]any, next func(map[string]any) map[string]any) map[string]any {
		return Merge(current, next(current))
	}
}

// Strip removes the given keys from the destination.
func Strip(keys ...string) Middleware {
	return func(current map[string]any, next func(map[string]any) map[string]any) map[string]any {
		out := clone(next(current))
		for _, k := range keys {
			delete(out, k)
		}
		return out
	}
}

// StripDefaults removes destination keys whose value equals the default.
func StripDefaults(defaults map[string]any) Middleware {
	norm := Normalize(defaults)
	return func(current map[string]any, next func(map[string]any) map[string]any) map[string]any {
		out := clone(next(current))
		got := Normalize(out)
		for k, def := range norm {
			if v, ok := got[k]; ok && reflect.DeepEqual(v, def) {
				delete(out, k)
			}
		}
		return out
	}
}

// StripAll drops the whole destination search.
func StripAll() Middleware {
	return func(current map[string]any, next func(map[string]any) map[string]any) map[string]any {
		next(current)
		return map[string]any{}
	}
}
