package fiber

import (
	"fmt"
	"reflect"
	"strconv"
)

const (
	childrenProp    = "children"
	textContentProp = "content"
)

// Props is the attribute bag of an element. The "children" entry holds the
// element's children: nil, a single child or a slice of children.
type Props map[string]any

func (p Props) Children() any {
	return p[childrenProp]
}

// Component is a function component. Components are compared by pointer, so a
// component should be created once and reused across renders.
type Component struct {
	Name   string
	Render func(h *Hooks, props Props) any
}

// FC declares a function component.
func FC(name string, render func(h *Hooks, props Props) any) *Component {
	return &Component{Name: name, Render: render}
}

func (c *Component) String() string {
	return c.Name
}

type fragmentMarker struct{}

// FragmentType is the element type of a fragment: its children render in
// place without a wrapping host node.
var FragmentType any = fragmentMarker{}

// Element is an immutable description of one node of the desired tree. Type
// is a host tag (string), a *Component or FragmentType. An empty Key means
// the element is matched by position.
type Element struct {
	Type  any
	Key   string
	Ref   any
	Props Props
}

func (e *Element) String() string {
	switch t := e.Type.(type) {
	case string:
		return "<" + t + ">"
	case *Component:
		return "<" + t.Name + ">"
	default:
		if e.Type == FragmentType {
			return "<>"
		}
		return fmt.Sprintf("<%T>", e.Type)
	}
}

// sameProps reports whether two prop bags are the same map.
func sameProps(a, b Props) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func textProps(content string) Props {
	return Props{textContentProp: content}
}

func textContent(p Props) string {
	s, _ := p[textContentProp].(string)
	return s
}

// asText converts strings and numbers into text content.
func asText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t), true
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	}
	return "", false
}

var (
	elementPtrType = reflect.TypeOf((*Element)(nil))
	anyType        = reflect.TypeOf((*any)(nil)).Elem()
	stringType     = reflect.TypeOf("")
)

// asChildren converts a slice or array of elements, strings or untyped
// children into []any. Other slices, []byte included, are not children.
func asChildren(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case []*Element:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = el
		}
		return out, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	switch rv.Type().Elem() {
	case elementPtrType, anyType, stringType:
	default:
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
