package handler

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// Limits for bracket-notation form decoding. Keys nested deeper than
// formMaxDepth keep the remainder as a literal key; indices above
// formArrayLimit turn the container into an object.
const (
	formMaxDepth   = 5
	formArrayLimit = 20
	formMaxParams  = 1000
)

// parseForm decodes an application/x-www-form-urlencoded body with nested
// bracket keys into the shapes the JSON decoder produces:
//
//	cart[0][sku]=1&cart[0][qty]=2  ->  {"cart": [{"sku": "1", "qty": "2"}]}
//	cart[]=a&cart[]=b              ->  {"cart": ["a", "b"]}
//	tag=a&tag=b                    ->  {"tag": ["a", "b"]}
//
// All leaf values are strings. Bodies with more than formMaxParams pairs are
// rejected with errBodyTooLarge.
func parseForm(body string) (map[string]any, error) {
	root := newFormNode()

	pairs := strings.Split(body, "&")
	if len(pairs) > formMaxParams {
		return nil, errors.Wrapf(errBodyTooLarge, "more than %d form parameters", formMaxParams)
	}
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, errors.Wrapf(err, "unescape key %q", rawKey)
		}
		if key == "" {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, errors.Wrapf(err, "unescape value of %q", key)
		}

		root.insert(splitFormKey(key), value)
	}

	return root.object(), nil
}

// splitFormKey splits "a[b][c]" into ["a", "b", "c"]. A key that starts with
// a bracket or has no brackets is used literally.
func splitFormKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}

	segments := []string{key[:open]}
	rest := key[open:]
	for depth := 0; depth < formMaxDepth && strings.HasPrefix(rest, "["); depth++ {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	if rest != "" {
		segments = append(segments, rest)
	}
	return segments
}

// formNode is an insertion-ordered container that becomes either an array or
// an object once decoding finishes.
type formNode struct {
	keys   []string
	values map[string]any // string, []any of repeated strings, or *formNode
}

func newFormNode() *formNode {
	return &formNode{values: make(map[string]any)}
}

func (n *formNode) add(key string, v any) {
	n.keys = append(n.keys, key)
	n.values[key] = v
}

// nextIndex returns the key for an appended element: one past the highest
// array index present, so explicit sparse indices are never overwritten.
func (n *formNode) nextIndex() string {
	next := 0
	for _, k := range n.keys {
		if i, ok := formIndex(k); ok && i >= next {
			next = i + 1
		}
	}
	return strconv.Itoa(next)
}

// formIndex reports whether k is a canonical non-negative integer.
func formIndex(k string) (int, bool) {
	i, err := strconv.Atoi(k)
	if err != nil || i < 0 || strconv.Itoa(i) != k {
		return 0, false
	}
	return i, true
}

func (n *formNode) insert(path []string, value string) {
	key := path[0]
	if key == "" {
		key = n.nextIndex()
	}

	existing, exists := n.values[key]
	if len(path) == 1 {
		switch cur := existing.(type) {
		case nil:
			n.add(key, value)
		case string:
			n.values[key] = []any{cur, value}
		case []any:
			n.values[key] = append(cur, value)
		case *formNode:
			cur.add(cur.nextIndex(), value)
		}
		return
	}

	child, ok := existing.(*formNode)
	if !ok {
		if exists {
			// A scalar already sits here; nested keys under it are dropped.
			return
		}
		child = newFormNode()
		n.add(key, child)
	}
	child.insert(path[1:], value)
}

// value converts the node into []any when every key is a small array index,
// otherwise into map[string]any.
func (n *formNode) value() any {
	if len(n.keys) == 0 {
		return map[string]any{}
	}

	indices := make([]int, 0, len(n.keys))
	for _, k := range n.keys {
		i, ok := formIndex(k)
		if !ok || i > formArrayLimit {
			return n.object()
		}
		indices = append(indices, i)
	}
	sort.Ints(indices)

	items := make([]any, 0, len(indices))
	for _, i := range indices {
		items = append(items, finishFormValue(n.values[strconv.Itoa(i)]))
	}
	return items
}

func (n *formNode) object() map[string]any {
	obj := make(map[string]any, len(n.keys))
	for _, k := range n.keys {
		obj[k] = finishFormValue(n.values[k])
	}
	return obj
}

func finishFormValue(v any) any {
	if node, ok := v.(*formNode); ok {
		return node.value()
	}
	return v
}
