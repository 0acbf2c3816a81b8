package ast

// MetaEntry is one `:key: value` pair of a meta block. Flags such as
// `:strong:` carry an empty value.
type MetaEntry struct {
	Key   string
	Value string
	Span  Range
}

// Meta is the ordered meta block attached to a directive. It is embedded in
// every node kind that accepts one.
type Meta struct {
	Entries  []MetaEntry
	MetaSpan Range
}

// Attributes exposes the embedded meta block; see Annotated.
func (m *Meta) Attributes() *Meta {
	return m
}

// Get returns the value of the last entry named key.
func (m *Meta) Get(key string) (string, bool) {
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].Key == key {
			return m.Entries[i].Value, true
		}
	}
	return "", false
}

// Has reports whether key is present, with or without a value.
func (m *Meta) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Label returns the `:label:` value, or "".
func (m *Meta) Label() string {
	v, _ := m.Get("label")
	return v
}

// Annotated is implemented by nodes that carry a meta block.
type Annotated interface {
	Node
	Attributes() *Meta
}

// LabelOf returns the label of n, or "" if n carries no meta block.
func LabelOf(n Node) string {
	if a, ok := n.(Annotated); ok {
		return a.Attributes().Label()
	}
	return ""
}
