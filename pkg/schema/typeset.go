package schema

// TypeSet is the set of JSON value kinds a Node can take on, used as the
// fallback compatibility check once structural comparisons (object
// fields, array elements, union descent) are exhausted.
type TypeSet map[string]bool

func newTypeSet(names ...string) TypeSet {
	s := make(TypeSet, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// TypesOf computes the type set of a node, unwrapping wrappers first.
func TypesOf(n *Node) TypeSet {
	n = Unwrap(n)
	if n == nil {
		return newTypeSet("unknown")
	}
	switch n.Kind {
	case KindAny:
		return newTypeSet("any")
	case KindString:
		return newTypeSet("string")
	case KindNumber:
		return newTypeSet("number")
	case KindBoolean:
		return newTypeSet("boolean")
	case KindNull:
		return newTypeSet("null")
	case KindArray, KindTuple:
		return newTypeSet("array")
	case KindObject:
		return newTypeSet("object")
	case KindLiteral:
		return literalTypeSet(n.Literal)
	case KindEnum:
		return enumTypeSet(n.EnumValues)
	case KindUnion, KindExclusiveUnion:
		out := TypeSet{}
		for _, opt := range n.Options {
			for t := range TypesOf(opt) {
				out[t] = true
			}
		}
		return out
	default:
		return newTypeSet("unknown")
	}
}

func literalTypeSet(v any) TypeSet {
	switch v.(type) {
	case string:
		return newTypeSet("string")
	case float64, int, int64:
		return newTypeSet("number")
	case bool:
		return newTypeSet("boolean")
	case nil:
		return newTypeSet("null")
	default:
		return newTypeSet("unknown")
	}
}

// enumTypeSet narrows to a single JSON type when every enum value shares
// one (the spec calls out strings explicitly; the same reasoning
// extends to any homogeneous enum). A mixed enum falls back to unknown,
// which is conservative for assignability on both sides of a check.
func enumTypeSet(values []any) TypeSet {
	if len(values) == 0 {
		return newTypeSet("unknown")
	}
	set := literalTypeSet(values[0])
	for _, v := range values[1:] {
		for t := range literalTypeSet(v) {
			if !set[t] {
				return newTypeSet("unknown")
			}
		}
	}
	return set
}
