package evaluator

import (
	"reflect"
	"strings"
)

// RegisterExtension adds a method callable on receivers of the given type or
// kind. typeOrKind is a full type string ("time.Time", "[]string") or a kind
// name ("string", "slice", "array", "map"). fn takes the receiver first.
func (e *Evaluator) RegisterExtension(typeOrKind, name string, fn any) {
	if e.ExtensionMethods[typeOrKind] == nil {
		e.ExtensionMethods[typeOrKind] = make(map[string]any)
	}
	e.ExtensionMethods[typeOrKind][name] = fn
}

// lookupExtension finds an extension method, preferring an exact type match
// over a kind match.
func (e *Evaluator) lookupExtension(recv any, name string) (any, bool) {
	if recv == nil {
		return nil, false
	}
	t := reflect.TypeOf(recv)
	if fn, ok := e.ExtensionMethods[t.String()][name]; ok {
		return fn, true
	}
	fn, ok := e.ExtensionMethods[t.Kind().String()][name]
	return fn, ok
}

func registerBuiltinExtensions(e *Evaluator) {
	strs := map[string]any{
		"Contains":   strings.Contains,
		"HasPrefix":  strings.HasPrefix,
		"HasSuffix":  strings.HasSuffix,
		"EqualFold":  strings.EqualFold,
		"Equals":     func(s, other string) bool { return s == other },
		"ToUpper":    strings.ToUpper,
		"ToLower":    strings.ToLower,
		"TrimSpace":  strings.TrimSpace,
		"Len":        func(s string) int { return len(s) },
		"IsEmpty":    func(s string) bool { return s == "" },
		"StartsWith": strings.HasPrefix,
		"EndsWith":   strings.HasSuffix,
	}
	for name, fn := range strs {
		e.RegisterExtension("string", name, fn)
	}

	seqs := map[string]any{
		"Contains": seqContains,
		"Len":      seqLen,
		"IsEmpty":  func(seq any) bool { return seqLen(seq) == 0 },
		"Any":      seqAny,
		"All":      seqAll,
		"Count":    seqCount,
	}
	for _, kind := range []string{"slice", "array"} {
		for name, fn := range seqs {
			e.RegisterExtension(kind, name, fn)
		}
	}

	e.RegisterExtension("map", "Len", seqLen)
	e.RegisterExtension("map", "IsEmpty", func(m any) bool { return seqLen(m) == 0 })
	e.RegisterExtension("map", "ContainsKey", mapContainsKey)
}

func seqLen(seq any) int {
	v := reflect.ValueOf(seq)
	if !v.IsValid() {
		return 0
	}
	return v.Len()
}

func seqItems(seq any) []any {
	if seq == nil {
		return nil
	}
	return (&Sequence{Value: seq}).Elements()
}

func seqContains(seq any, item any) bool {
	m := NewMarshaller()
	want := m.ToValue(item)
	for _, el := range seqItems(seq) {
		if ObjectsEqual(m.ToValue(el), want) {
			return true
		}
	}
	return false
}

func seqAny(seq any, pred func(any) bool) bool {
	for _, el := range seqItems(seq) {
		if pred(el) {
			return true
		}
	}
	return false
}

func seqAll(seq any, pred func(any) bool) bool {
	for _, el := range seqItems(seq) {
		if !pred(el) {
			return false
		}
	}
	return true
}

func seqCount(seq any, pred func(any) bool) int {
	n := 0
	for _, el := range seqItems(seq) {
		if pred(el) {
			n++
		}
	}
	return n
}

func mapContainsKey(m any, key any) bool {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Map || key == nil {
		return false
	}
	k := reflect.ValueOf(key)
	if !k.Type().AssignableTo(v.Type().Key()) {
		if !convertible(k.Type(), v.Type().Key()) {
			return false
		}
		k = k.Convert(v.Type().Key())
	}
	return v.MapIndex(k).IsValid()
}
