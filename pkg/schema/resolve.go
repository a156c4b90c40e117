package schema

import (
	"strconv"

	"github.com/Mindburn-Labs/toolplan/pkg/pathutil"
)

// ResolveAtPath walks a Node tree along path, unwrapping wrappers before
// each step and descending unions by trying every option independently
// (per the spec: if none of a union's options resolve the remaining
// path, the whole lookup fails; if exactly one does, that is the result;
// if more than one does, the result is itself a union of the survivors).
func ResolveAtPath(root *Node, path pathutil.Path) (*Node, bool) {
	return resolveAt(root, path)
}

func resolveAt(node *Node, remaining pathutil.Path) (*Node, bool) {
	node = Unwrap(node)
	if node == nil {
		return nil, false
	}
	if len(remaining) == 0 {
		return node, true
	}

	if node.Kind == KindUnion || node.Kind == KindExclusiveUnion {
		var successes []*Node
		for _, opt := range node.Options {
			if r, ok := resolveAt(opt, remaining); ok {
				successes = append(successes, r)
			}
		}
		switch len(successes) {
		case 0:
			return nil, false
		case 1:
			return successes[0], true
		default:
			return &Node{Kind: KindUnion, Options: successes}, true
		}
	}

	seg := remaining[0]
	rest := remaining[1:]

	switch node.Kind {
	case KindArray:
		if !segIsIndexLike(seg) {
			return nil, false
		}
		return resolveAt(node.Element, rest)
	case KindTuple:
		if !segIsIndexLike(seg) {
			return nil, false
		}
		return resolveAt(node.Element, rest)
	case KindObject:
		key := objectKey(seg)
		if child, ok := node.Fields[key]; ok {
			return resolveAt(child, rest)
		}
		if len(node.Fields) == 0 {
			return resolveAt(&Node{Kind: KindAny}, rest)
		}
		if node.Catchall != nil {
			return resolveAt(node.Catchall, rest)
		}
		return nil, false
	default:
		return nil, false
	}
}

func segIsIndexLike(seg pathutil.Segment) bool {
	if seg.IsIndex {
		return true
	}
	return pathutil.IsNumericString(seg.Key)
}

func objectKey(seg pathutil.Segment) string {
	if seg.IsIndex {
		return strconv.Itoa(seg.Index)
	}
	return seg.Key
}
