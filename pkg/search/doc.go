// Package search parses, validates and stringifies location search params.
//
// The default codec JSON-encodes values that would otherwise lose their type,
// so numbers, booleans, arrays and nested objects survive a round trip:
//
//	q := search.Stringify(map[string]any{"page": 2, "tags": []string{"go"}})
//	// page=2&tags=%5B%22go%22%5D
//	search.Parse(q) // map[page:2 tags:[go]]
//
// Validators run root to leaf over a matched chain. Each returns a tagged
// Result (OK, Fallback or Failed) instead of panicking, and a failure is
// recorded against its route without stopping the rest of the chain.
package search
