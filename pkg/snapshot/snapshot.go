// Package snapshot renders arbitrary records into bounded, human-readable
// text suitable for embedding in audit messages.
//
// Rendering never fails: nil renders as "null", reference cycles render as
// "[Circular]", nesting beyond MaxDepth renders as "[MaxDepth]", and output
// longer than MaxLength is truncated with an explicit marker.
package snapshot

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Markers emitted in place of values that cannot be rendered faithfully.
const (
	CircularMarker = "[Circular]"
	DepthMarker    = "[MaxDepth]"
	TruncateMarker = "… [truncated %d chars]"
)

// Defaults for Builder.
const (
	DefaultMaxLength = 1000
	DefaultMaxDepth  = 8
	DefaultMaxItems  = 50
)

// Builder renders snapshots with configurable bounds.
type Builder struct {
	// MaxLength is the maximum output length in runes, marker included.
	MaxLength int

	// MaxDepth limits nesting of maps, slices and structs.
	MaxDepth int

	// MaxItems limits the elements rendered per map or slice.
	MaxItems int

	// Indent is the per-level indentation; empty renders compactly.
	Indent string
}

// Default is the builder used by Build.
var Default = &Builder{
	MaxLength: DefaultMaxLength,
	MaxDepth:  DefaultMaxDepth,
	MaxItems:  DefaultMaxItems,
	Indent:    "  ",
}

// Build renders v with the default bounds.
func Build(v any) string {
	return Default.Build(v)
}

// Build renders v. It never panics.
func (b *Builder) Build(v any) (out string) {
	r := &renderer{
		b:       b,
		visited: make(map[visit]bool),
	}

	defer func() {
		if p := recover(); p != nil {
			out = b.truncate(r.sb.String() + fmt.Sprintf(" [Unrenderable: %v]", p))
		}
	}()

	r.render(reflect.ValueOf(v), 0)
	return b.truncate(r.sb.String())
}

// truncate bounds s to MaxLength runes including the marker.
func (b *Builder) truncate(s string) string {
	limit := b.MaxLength
	if limit <= 0 {
		limit = DefaultMaxLength
	}
	n := utf8.RuneCountInString(s)
	if n <= limit {
		return s
	}

	runes := []rune(s)
	// Size the marker for the widest possible count so the result fits.
	keep := limit - utf8.RuneCountInString(fmt.Sprintf(TruncateMarker, n))
	if keep < 0 {
		// The bound is narrower than the marker itself.
		return string([]rune(fmt.Sprintf(TruncateMarker, n))[:limit])
	}
	marker := fmt.Sprintf(TruncateMarker, n-keep)
	return string(runes[:keep]) + marker
}

// visit identifies a reference on the current path. A struct and its first
// field share an address, so the type is part of the key.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

type renderer struct {
	b       *Builder
	sb      strings.Builder
	visited map[visit]bool
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	stringerType  = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	textMarshaler = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

func (r *renderer) maxDepth() int {
	if r.b.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return r.b.MaxDepth
}

func (r *renderer) maxItems() int {
	if r.b.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return r.b.MaxItems
}

func (r *renderer) newline(depth int) {
	if r.b.Indent == "" {
		return
	}
	r.sb.WriteByte('\n')
	r.sb.WriteString(strings.Repeat(r.b.Indent, depth))
}

func (r *renderer) sep() {
	r.sb.WriteByte(',')
}

func (r *renderer) quote(s string) {
	r.sb.WriteString(strconv.Quote(s))
}

func (r *renderer) render(v reflect.Value, depth int) {
	if !v.IsValid() {
		r.sb.WriteString("null")
		return
	}

	if v.Type() == timeType {
		r.quote(v.Interface().(time.Time).UTC().Format(time.RFC3339))
		return
	}
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.CanInterface() && v.Type().Implements(errorType) {
		r.quote(v.Interface().(error).Error())
		return
	}
	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface && v.CanInterface() {
		switch {
		case v.Type() == reflect.TypeOf(json.Number("")):
			r.sb.WriteString(v.String())
			return
		case v.Type().Implements(errorType):
			r.quote(v.Interface().(error).Error())
			return
		case v.Type().Implements(textMarshaler) && v.Kind() != reflect.String:
			if text, err := v.Interface().(encoding.TextMarshaler).MarshalText(); err == nil {
				r.quote(string(text))
				return
			}
		case v.Type().Implements(stringerType) && v.Kind() == reflect.Struct:
			r.quote(v.Interface().(fmt.Stringer).String())
			return
		}
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			r.sb.WriteString("null")
			return
		}
		r.render(v.Elem(), depth)

	case reflect.Pointer:
		if v.IsNil() {
			r.sb.WriteString("null")
			return
		}
		key := visit{v.Pointer(), v.Type()}
		if r.visited[key] {
			r.sb.WriteString(CircularMarker)
			return
		}
		r.visited[key] = true
		r.render(v.Elem(), depth)
		delete(r.visited, key)

	case reflect.Map:
		r.renderMap(v, depth)

	case reflect.Slice:
		if v.IsNil() {
			r.sb.WriteString("null")
			return
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			r.quote(fmt.Sprintf("<%d bytes>", v.Len()))
			return
		}
		key := visit{v.Pointer(), v.Type()}
		if v.Len() > 0 && r.visited[key] {
			r.sb.WriteString(CircularMarker)
			return
		}
		if v.Len() > 0 {
			r.visited[key] = true
			defer delete(r.visited, key)
		}
		r.renderList(v, depth)

	case reflect.Array:
		r.renderList(v, depth)

	case reflect.Struct:
		r.renderStruct(v, depth)

	case reflect.String:
		r.quote(v.String())

	case reflect.Bool:
		r.sb.WriteString(strconv.FormatBool(v.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		r.sb.WriteString(strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		r.sb.WriteString(strconv.FormatUint(v.Uint(), 10))

	case reflect.Float32, reflect.Float64:
		r.sb.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))

	default:
		r.sb.WriteString("[Unsupported " + v.Kind().String() + "]")
	}
}

func (r *renderer) renderMap(v reflect.Value, depth int) {
	if v.IsNil() {
		r.sb.WriteString("null")
		return
	}
	key := visit{v.Pointer(), v.Type()}
	if r.visited[key] {
		r.sb.WriteString(CircularMarker)
		return
	}
	if depth >= r.maxDepth() {
		r.sb.WriteString(DepthMarker)
		return
	}
	r.visited[key] = true
	defer delete(r.visited, key)

	keys := v.MapKeys()
	names := make([]string, len(keys))
	types := make([]string, len(keys))
	exact := make([]string, len(keys))
	for i, k := range keys {
		names[i] = fmt.Sprint(k.Interface())
		types[i] = keyType(k)
		exact[i] = fmt.Sprintf("%#v", k.Interface())
	}
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	// Keys printing alike (1 and "1") are ordered by type, then by Go syntax.
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if names[i] != names[j] {
			return names[i] < names[j]
		}
		if types[i] != types[j] {
			return types[i] < types[j]
		}
		return exact[i] < exact[j]
	})

	if len(keys) == 0 {
		r.sb.WriteString("{}")
		return
	}

	r.sb.WriteByte('{')
	for n, i := range idx {
		if n >= r.maxItems() {
			r.sep()
			r.newline(depth + 1)
			fmt.Fprintf(&r.sb, "\"…\": \"%d more\"", len(keys)-n)
			break
		}
		if n > 0 {
			r.sep()
		}
		r.newline(depth + 1)
		r.quote(names[i])
		r.sb.WriteString(": ")
		r.render(v.MapIndex(keys[i]), depth+1)
	}
	r.newline(depth)
	r.sb.WriteByte('}')
}

// keyType names the dynamic type of a map key.
func keyType(k reflect.Value) string {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "nil"
		}
		return k.Elem().Type().String()
	}
	return k.Type().String()
}

func (r *renderer) renderList(v reflect.Value, depth int) {
	if v.Len() == 0 {
		r.sb.WriteString("[]")
		return
	}
	if depth >= r.maxDepth() {
		r.sb.WriteString(DepthMarker)
		return
	}

	r.sb.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i >= r.maxItems() {
			r.sep()
			r.newline(depth + 1)
			fmt.Fprintf(&r.sb, "\"… %d more\"", v.Len()-i)
			break
		}
		if i > 0 {
			r.sep()
		}
		r.newline(depth + 1)
		r.render(v.Index(i), depth+1)
	}
	r.newline(depth)
	r.sb.WriteByte(']')
}

func (r *renderer) renderStruct(v reflect.Value, depth int) {
	if depth >= r.maxDepth() {
		r.sb.WriteString(DepthMarker)
		return
	}

	t := v.Type()
	r.sb.WriteByte('{')
	written := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if written > 0 {
			r.sep()
		}
		r.newline(depth + 1)
		r.quote(name)
		r.sb.WriteString(": ")
		r.render(v.Field(i), depth+1)
		written++
	}
	if written > 0 {
		r.newline(depth)
	}
	r.sb.WriteByte('}')
}
