package fiber

import (
	"fmt"
	"maps"
	"strconv"
)

// Props are the inputs of an element. The "children" entry holds the child
// nodes, and "key" is lifted out into Element.Key by H.
type Props map[string]any

// State is the local state of a class component and of the host root.
type State map[string]any

// Node is anything that can appear in a rendered tree: nil and bools render
// nothing, strings and numbers render text, *Element renders an element and
// []Node renders a sequence.
type Node = any

// Element is a plain descriptor produced by H. Type is a tag name for host
// elements, or a *FunctionComponent or *ClassComponent.
type Element struct {
	Key   any
	Type  any
	Props Props
}

const (
	childrenProp = "children"
	keyProp      = "key"
	styleProp    = "style"
)

// H builds an element descriptor. The key entry of props, if any, becomes
// the element key. Children are flattened, nil and bool children dropped. A
// lone text child is stored as is so host elements render it as content.
func H(typ any, props Props, children ...Node) *Element {
	el := &Element{Type: typ}
	if props != nil {
		el.Props = maps.Clone(props)
		if k, ok := el.Props[keyProp]; ok {
			el.Key = k
			delete(el.Props, keyProp)
		}
	}

	flat := flattenChildren(nil, children)
	if len(flat) == 0 {
		return el
	}
	if el.Props == nil {
		el.Props = Props{}
	}
	if _, isText := textOf(flat[0]); isText && len(flat) == 1 {
		el.Props[childrenProp] = flat[0]
	} else {
		el.Props[childrenProp] = flat
	}
	return el
}

func flattenChildren(dst []Node, children []Node) []Node {
	for _, c := range children {
		switch c := c.(type) {
		case nil, bool:
		case []Node:
			dst = flattenChildren(dst, c)
		case []*Element:
			for _, el := range c {
				if el != nil {
					dst = append(dst, el)
				}
			}
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// textOf reports the text content of a string or numeric node.
func textOf(n Node) (string, bool) {
	switch v := n.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	return "", false
}

func asNodeList(n Node) ([]Node, bool) {
	switch v := n.(type) {
	case []Node:
		return v, true
	case []*Element:
		list := make([]Node, len(v))
		for i, el := range v {
			if el != nil {
				list[i] = el
			}
		}
		return list, true
	}
	return nil, false
}

// FunctionComponent wraps a render function so it has a stable identity
// that can be compared between renders.
type FunctionComponent struct {
	Name   string
	Render func(h *Hooks, props Props) Node
}

// FC declares a function component.
func FC(name string, render func(h *Hooks, props Props) Node) *FunctionComponent {
	return &FunctionComponent{Name: name, Render: render}
}
