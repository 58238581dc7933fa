// Package jsontree provides a generic walk over decoded JSON values.
package jsontree

import "sort"

// Visit walks a decoded JSON value (the result of json.Unmarshal into an
// interface{}: maps, slices and scalars) depth-first, calling fn for every
// object key and its value. Object keys are visited in sorted order so
// repeated walks of the same value see the same sequence; slice elements are
// visited in index order.
func Visit(v interface{}, fn func(key string, value interface{})) {
	switch node := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fn(k, node[k])
			Visit(node[k], fn)
		}
	case []interface{}:
		for _, child := range node {
			Visit(child, fn)
		}
	}
}

// CollectArrays returns every array found anywhere in the value under an
// object key exactly matching key. Nested matches inside a matching array's
// elements are collected too.
func CollectArrays(v interface{}, key string) [][]interface{} {
	var out [][]interface{}
	Visit(v, func(k string, value interface{}) {
		if k != key {
			return
		}
		if arr, ok := value.([]interface{}); ok {
			out = append(out, arr)
		}
	})
	return out
}
