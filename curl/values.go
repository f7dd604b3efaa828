package curl

import (
	"bytes"
	"net/url"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Values is an ordered string mapping. Set keeps a key at the position of
// its first insertion. The zero value is ready to use.
type Values struct {
	keys []string
	m    map[string]string
}

// NewValues returns an empty mapping.
func NewValues() *Values {
	return &Values{}
}

// Pairs builds a mapping from alternating keys and values. A trailing key
// without a value maps to "".
func Pairs(kv ...string) *Values {
	v := NewValues()
	for i := 0; i < len(kv); i += 2 {
		val := ""
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		v.Set(kv[i], val)
	}
	return v
}

// ValuesOf copies a map. Keys are inserted in sorted order.
func ValuesOf(m map[string]string) *Values {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := NewValues()
	for _, k := range keys {
		v.Set(k, m[k])
	}
	return v
}

// Set stores value under key. A new key goes last; an existing one keeps its place.
func (v *Values) Set(key, value string) {
	if v.m == nil {
		v.m = make(map[string]string)
	}
	if _, ok := v.m[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.m[key] = value
}

// Get returns the value for key, or "" when absent.
func (v *Values) Get(key string) string {
	if v == nil {
		return ""
	}
	return v.m[key]
}

// Has reports whether key is present.
func (v *Values) Has(key string) bool {
	if v == nil {
		return false
	}
	_, ok := v.m[key]
	return ok
}

// Del removes key.
func (v *Values) Del(key string) {
	if !v.Has(key) {
		return
	}
	delete(v.m, key)
	for i, k := range v.keys {
		if k == key {
			v.keys = append(v.keys[:i], v.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Keys returns the keys in insertion order.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// Merge sets every pair of other, in other's order.
func (v *Values) Merge(other *Values) {
	for _, k := range other.Keys() {
		v.Set(k, other.m[k])
	}
}

// Clone returns a deep copy. Cloning nil yields an empty mapping.
func (v *Values) Clone() *Values {
	c := NewValues()
	c.Merge(v)
	return c
}

// Encode renders "k=v&..." in insertion order with query escaping.
func (v *Values) Encode() string {
	if v.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range v.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v.m[k]))
	}
	return b.String()
}

// MarshalJSON renders an object whose members keep insertion order.
func (v *Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range v.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := sonic.Marshal(v.m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
