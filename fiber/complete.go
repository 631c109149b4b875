package fiber

import (
	"maps"
	"slices"

	"github.com/delaneyj/fibertree/host"
)

func (s *workSession) completeWork(current, wip *Fiber) {
	switch wip.kind {
	case HostElementKind:
		s.completeHostComponent(current, wip)
	case HostTextKind:
		s.completeHostText(current, wip)
	case HostRootKind, ClassComponentKind, FunctionComponentKind:
	default:
		panic(structural("completeWork", ErrUnknownKind, "%s", wip.kind))
	}
}

func (s *workSession) completeHostComponent(current, wip *Fiber) {
	props, _ := wip.pendingProps.(Props)

	if current != nil && wip.stateNode != nil {
		if sameValue(current.memoizedProps, wip.pendingProps) {
			return
		}
		if payload := s.r.diffProperties(current.Props(), props); len(payload) > 0 {
			wip.updatePayload = payload
			wip.markUpdate()
		}
		return
	}

	tag := wip.elementType.(string)
	node := s.r.host.CreateNode(tag)
	s.appendAllChildren(node, wip)
	s.r.setInitialProperties(node, props)

	wip.stateNode = node
	s.r.nodes[node] = &hostRecord{fiber: wip, props: props}
	s.r.events.listenTo(props)
}

func (s *workSession) completeHostText(current, wip *Fiber) {
	text, _ := wip.pendingProps.(string)

	if current != nil && wip.stateNode != nil {
		if prev, _ := current.memoizedProps.(string); prev != text {
			wip.markUpdate()
		}
		return
	}

	node := s.r.host.CreateText(text)
	wip.stateNode = node
	s.r.nodes[node] = &hostRecord{fiber: wip}
}

// appendAllChildren attaches the top level host nodes below wip to the
// detached node created for it.
func (s *workSession) appendAllChildren(parent host.Node, wip *Fiber) {
	node := wip.child
	for node != nil {
		if node.kind == HostElementKind || node.kind == HostTextKind {
			s.r.host.AppendChild(parent, node.stateNode)
		} else if node.child != nil {
			node.child.parent = node
			node = node.child
			continue
		}

		if node == wip {
			return
		}
		for node.sibling == nil {
			if node.parent == nil || node.parent == wip {
				return
			}
			node = node.parent
		}
		node.sibling.parent = node.parent
		node = node.sibling
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	return slices.Sorted(maps.Keys(m))
}

func (r *Reconciler) setInitialProperties(node host.Node, props Props) {
	var attrs []host.AttributeChange
	for _, k := range sortedKeys(props) {
		v := props[k]
		switch {
		case v == nil, k == childrenProp, r.events.isRegistrationName(k):
		case k == styleProp:
			if style := asStyle(v); len(style) > 0 {
				attrs = append(attrs, host.AttributeChange{Key: styleProp, Value: maps.Clone(style)})
			}
		default:
			attrs = append(attrs, host.AttributeChange{Key: k, Value: v})
		}
	}
	if len(attrs) > 0 {
		r.host.ApplyAttributes(node, attrs)
	}
	if text, ok := textOf(props[childrenProp]); ok {
		r.host.SetTextContent(node, text)
	}
}

func asStyle(v any) map[string]any {
	switch s := v.(type) {
	case map[string]any:
		return s
	case Props:
		return s
	case map[string]string:
		out := make(map[string]any, len(s))
		for k, v := range s {
			out[k] = v
		}
		return out
	}
	return nil
}

// diffProperties computes the attribute changes between two prop sets.
// Removed attributes carry a nil value and removed style entries an empty
// string. Event handler changes are included so the committed props stay
// current, they are never handed to the host.
func (r *Reconciler) diffProperties(prev, next Props) []host.AttributeChange {
	var (
		payload []host.AttributeChange
		style   map[string]any
	)
	setStyle := func(name string, v any) {
		if style == nil {
			style = map[string]any{}
		}
		style[name] = v
	}

	for _, k := range sortedKeys(prev) {
		if _, ok := next[k]; ok || prev[k] == nil {
			continue
		}
		switch k {
		case styleProp:
			for name := range asStyle(prev[k]) {
				setStyle(name, "")
			}
		case childrenProp:
			if _, ok := textOf(prev[k]); ok {
				payload = append(payload, host.AttributeChange{Key: childrenProp, Value: ""})
			}
		default:
			payload = append(payload, host.AttributeChange{Key: k})
		}
	}

	for _, k := range sortedKeys(next) {
		nv, ov := next[k], prev[k]
		if sameValue(nv, ov) {
			continue
		}
		switch k {
		case styleProp:
			ns, os := asStyle(nv), asStyle(ov)
			for name := range os {
				if v, ok := ns[name]; !ok || v == nil {
					setStyle(name, "")
				}
			}
			for name, v := range ns {
				if v != nil && !sameValue(os[name], v) {
					setStyle(name, v)
				}
			}
		case childrenProp:
			if text, ok := textOf(nv); ok {
				payload = append(payload, host.AttributeChange{Key: childrenProp, Value: text})
			}
		default:
			payload = append(payload, host.AttributeChange{Key: k, Value: nv})
		}
	}

	if len(style) > 0 {
		payload = append(payload, host.AttributeChange{Key: styleProp, Value: style})
	}
	return payload
}
