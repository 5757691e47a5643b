package history

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockstorm/internal/dom"
)

// RecordKind is the type of node a Record holds.
type RecordKind uint8

const (
	KindText RecordKind = iota
	KindComment
	KindElement
)

// String returns the string representation of the kind.
func (k RecordKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindElement:
		return "element"
	default:
		return "unknown"
	}
}

// Record is one serialized child of the root.
type Record struct {
	Kind RecordKind
	Data string
}

// Snapshot is the serialized list of the root's children.
type Snapshot []Record

// Equal reports whether two snapshots are structurally identical.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// HTML renders the snapshot back to markup.
func (s Snapshot) HTML() string {
	var sb strings.Builder
	for _, r := range s {
		switch r.Kind {
		case KindText:
			sb.WriteString(html.EscapeString(r.Data))
		case KindComment:
			sb.WriteString("<!--" + r.Data + "-->")
		default:
			sb.WriteString(r.Data)
		}
	}
	return sb.String()
}

// Capture serializes the current children of doc's root.
func Capture(doc *dom.Document, logger *zap.Logger) Snapshot {
	if logger == nil {
		logger = zap.NewNop()
	}
	var snap Snapshot
	for c := doc.Root().FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			snap = append(snap, Record{Kind: KindText, Data: c.Data})
		case html.CommentNode:
			snap = append(snap, Record{Kind: KindComment, Data: c.Data})
		case html.ElementNode:
			snap = append(snap, Record{Kind: KindElement, Data: renderElement(doc, c, logger)})
		}
	}
	return snap
}

// renderElement renders el, carrying its block state in the transport
// attribute for the duration of the render.
func renderElement(doc *dom.Document, el *html.Node, logger *zap.Logger) string {
	state, ok := doc.BlockState(el)
	if ok && !state.Empty() {
		data, err := encodeState(state)
		if err != nil {
			logger.Warn("block state partly not serializable", zap.String("block", dom.BlockID(el)), zap.Error(err))
		}
		dom.SetAttr(el, dom.AttrState, data)
		defer dom.RemoveAttr(el, dom.AttrState)
	}
	out, err := dom.Render(el)
	if err != nil {
		logger.Warn("render failed", zap.String("block", dom.BlockID(el)), zap.Error(err))
	}
	return out
}

// Materialize rebuilds detached nodes from snap, re-hydrating block state
// from the transport attribute.
func Materialize(doc *dom.Document, snap Snapshot, logger *zap.Logger) []*html.Node {
	if logger == nil {
		logger = zap.NewNop()
	}
	nodes := make([]*html.Node, 0, len(snap))
	for _, r := range snap {
		switch r.Kind {
		case KindText:
			nodes = append(nodes, &html.Node{Type: html.TextNode, Data: r.Data})
		case KindComment:
			nodes = append(nodes, &html.Node{Type: html.CommentNode, Data: r.Data})
		default:
			parsed, err := doc.ParseFragment(r.Data)
			if err != nil || len(parsed) == 0 {
				logger.Warn("snapshot element not restorable", zap.Error(err))
				continue
			}
			if len(parsed) != 1 {
				logger.Warn("snapshot element re-parsed into several nodes",
					zap.Int("nodes", len(parsed)),
					zap.String("markup", r.Data),
				)
			}
			for _, el := range parsed {
				if dom.HasAttr(el, dom.AttrState) {
					doc.SetBlockState(el, decodeState(dom.Attr(el, dom.AttrState)))
					dom.RemoveAttr(el, dom.AttrState)
				}
				nodes = append(nodes, el)
			}
		}
	}
	return nodes
}

// encodeState renders the serializable part of s as JSON. Function and
// channel values are dropped wherever they are nested; a key whose value
// still cannot be encoded is skipped and reported in the error. Keys are
// written in sorted order so equal states always produce equal markup.
func encodeState(s dom.BlockState) (string, error) {
	out := "{}"
	var errs []error
	for _, section := range []struct {
		name   string
		values map[string]any
	}{{"props", s.Props}, {"state", s.State}} {
		keys := make([]string, 0, len(section.values))
		for k := range section.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, ok := serializable(section.values[k])
			if !ok {
				continue
			}
			next, err := sjson.Set(out, section.name+"."+escapePath(k), v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: %w", section.name, k, err))
				continue
			}
			out = next
		}
	}
	return out, errors.Join(errs...)
}

func decodeState(data string) dom.BlockState {
	var s dom.BlockState
	parsed := gjson.Parse(data)
	if m, ok := jsonValue(parsed.Get("props")).(map[string]any); ok {
		s.Props = m
	}
	if m, ok := jsonValue(parsed.Get("state")).(map[string]any); ok {
		s.State = m
	}
	return s
}

// jsonValue converts r to Go values like gjson's Value, except that
// integral numbers come back as int.
func jsonValue(r gjson.Result) any {
	switch {
	case r.IsObject():
		m := make(map[string]any)
		r.ForEach(func(k, v gjson.Result) bool {
			m[k.String()] = jsonValue(v)
			return true
		})
		return m
	case r.IsArray():
		arr := r.Array()
		out := make([]any, len(arr))
		for i, v := range arr {
			out[i] = jsonValue(v)
		}
		return out
	case r.Type == gjson.Number:
		if n, err := strconv.ParseInt(r.Raw, 10, 0); err == nil {
			return int(n)
		}
		return r.Float()
	default:
		return r.Value()
	}
}

// serializable returns v with function and channel values removed at any
// depth. It reports false when v itself is one of them.
func serializable(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
		return serializable(rv.Elem().Interface())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v, true
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if ev, ok := serializable(iter.Value().Interface()); ok {
				m[iter.Key().String()] = ev
			}
		}
		return m, true
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return v, true
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v, true
		}
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if ev, ok := serializable(rv.Index(i).Interface()); ok {
				out = append(out, ev)
			}
		}
		return out, true
	}
	return v, true
}

// escapePath escapes the characters sjson treats as path syntax.
func escapePath(k string) string {
	var sb strings.Builder
	for _, r := range k {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
