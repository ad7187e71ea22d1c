// Package jsx builds element descriptors for the fiber reconciler.
package jsx

import (
	"fmt"

	"github.com/delaneyj/fiberparty/fiber"
)

const (
	keyProp      = "key"
	refProp      = "ref"
	childrenProp = "children"
)

// H creates an element. "key" and "ref" are lifted out of props; children
// passed as arguments override props["children"]. A single child is stored
// as is, several children as a []any.
func H(elementType any, props fiber.Props, children ...any) *fiber.Element {
	el := &fiber.Element{Type: elementType, Props: fiber.Props{}}
	for k, v := range props {
		switch k {
		case keyProp:
			el.Key = keyString(v)
		case refProp:
			el.Ref = v
		default:
			el.Props[k] = v
		}
	}

	switch len(children) {
	case 0:
	case 1:
		el.Props[childrenProp] = children[0]
	default:
		el.Props[childrenProp] = children
	}
	return el
}

// Keyed is H with an explicit key.
func Keyed(key string, elementType any, props fiber.Props, children ...any) *fiber.Element {
	el := H(elementType, props, children...)
	el.Key = key
	return el
}

// Fragment groups children without a host node.
func Fragment(children ...any) *fiber.Element {
	return H(fiber.FragmentType, nil, children...)
}

// Text returns s as a text child. It exists for readability at call sites.
func Text(s string) any {
	return s
}

// Children converts a typed slice of elements into a children value.
func Children[T any](items []T, fn func(i int, item T) *fiber.Element) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = fn(i, item)
	}
	return out
}

func keyString(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case string:
		return k
	case fmt.Stringer:
		return k.String()
	}
	return fmt.Sprint(v)
}
