package npm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
)

// PackageJSONRaw defines the package.json fields read before normalization
type PackageJSONRaw struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Type             string            `json:"type"`
	Main             JSONAny           `json:"main"`
	Module           JSONAny           `json:"module"`
	Types            JSONAny           `json:"types"`
	Typings          JSONAny           `json:"typings"`
	Bin              json.RawMessage   `json:"bin"`
	Dependencies     any               `json:"dependencies"`
	DevDependencies  any               `json:"devDependencies"`
	PeerDependencies any               `json:"peerDependencies"`
	Exports          json.RawMessage   `json:"exports"`
	PublishConfig    *PublishConfigRaw `json:"publishConfig"`
}

// PublishConfigRaw defines the overridable fields of the `publishConfig` field
type PublishConfigRaw struct {
	Type    string          `json:"type"`
	Main    JSONAny         `json:"main"`
	Module  JSONAny         `json:"module"`
	Types   JSONAny         `json:"types"`
	Typings JSONAny         `json:"typings"`
	Bin     json.RawMessage `json:"bin"`
	Exports json.RawMessage `json:"exports"`
}

// BinEntry is a single executable declared in the `bin` field
type BinEntry struct {
	Name string
	Path string
}

// PublishConfig defines the normalized `publishConfig` field
type PublishConfig struct {
	Type    string
	Main    string
	Module  string
	Types   string
	Typings string
	Bin     []BinEntry
	Exports any
}

// PackageJSON defines the normalized package.json of a package.
//
// Exports holds the raw `exports` value: nil, a string, an ordered
// JSONObject or an []any. Object key order is preserved.
type PackageJSON struct {
	Name             string
	Version          string
	Type             string
	Main             string
	Module           string
	Types            string
	Typings          string
	Bin              []BinEntry
	Dependencies     map[string]string
	DevDependencies  map[string]string
	PeerDependencies map[string]string
	Exports          any
	PublishConfig    *PublishConfig
}

// ToPackageJSON converts PackageJSONRaw to PackageJSON
func (a *PackageJSONRaw) ToPackageJSON() (*PackageJSON, error) {
	exports, err := parseRawValue(a.Exports)
	if err != nil {
		return nil, fmt.Errorf("invalid exports field: %w", err)
	}
	bin, err := parseBin(a.Name, a.Bin)
	if err != nil {
		return nil, fmt.Errorf("invalid bin field: %w", err)
	}

	p := &PackageJSON{
		Name:             a.Name,
		Version:          a.Version,
		Type:             a.Type,
		Main:             a.Main.MainString(),
		Module:           a.Module.MainString(),
		Types:            a.Types.MainString(),
		Typings:          a.Typings.MainString(),
		Bin:              bin,
		Dependencies:     toStringMap(a.Dependencies),
		DevDependencies:  toStringMap(a.DevDependencies),
		PeerDependencies: toStringMap(a.PeerDependencies),
		Exports:          exports,
	}

	if c := a.PublishConfig; c != nil {
		exports, err := parseRawValue(c.Exports)
		if err != nil {
			return nil, fmt.Errorf("invalid publishConfig.exports field: %w", err)
		}
		bin, err := parseBin(a.Name, c.Bin)
		if err != nil {
			return nil, fmt.Errorf("invalid publishConfig.bin field: %w", err)
		}
		p.PublishConfig = &PublishConfig{
			Type:    c.Type,
			Main:    c.Main.MainString(),
			Module:  c.Module.MainString(),
			Types:   c.Types.MainString(),
			Typings: c.Typings.MainString(),
			Bin:     bin,
			Exports: exports,
		}
	}

	return p, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (a *PackageJSON) UnmarshalJSON(b []byte) error {
	var raw PackageJSONRaw
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p, err := raw.ToPackageJSON()
	if err != nil {
		return err
	}
	*a = *p
	return nil
}

// IsModule returns true if the package declares `"type": "module"`.
func (a *PackageJSON) IsModule() bool {
	return a.Type == "module"
}

// TypesField returns the `types` field, falling back to `typings`.
func (a *PackageJSON) TypesField() string {
	if a.Types != "" {
		return a.Types
	}
	return a.Typings
}

// HasDependency checks dependencies, devDependencies and peerDependencies.
func (a *PackageJSON) HasDependency(name string) bool {
	for _, deps := range []map[string]string{a.Dependencies, a.DevDependencies, a.PeerDependencies} {
		if _, ok := deps[name]; ok {
			return true
		}
	}
	return false
}

// JSONObject represents a JSON object with ordered keys
type JSONObject struct {
	keys   []string
	values map[string]any
}

// NewJSONObject creates a new JSONObject with the given keys and values
func NewJSONObject(keys []string, values map[string]any) JSONObject {
	return JSONObject{
		keys:   keys,
		values: values,
	}
}

// Len returns the length of the JSON object
func (obj *JSONObject) Len() int {
	return len(obj.keys)
}

// Keys returns the keys of the JSON object
func (obj *JSONObject) Keys() []string {
	return obj.keys
}

// Get returns the value of the key in the JSON object
func (obj *JSONObject) Get(key string) (any, bool) {
	v, ok := obj.values[key]
	return v, ok
}

// Set sets the value of the key, appending the key if it is new.
func (obj *JSONObject) Set(key string, value any) {
	if obj.values == nil {
		obj.values = make(map[string]any)
	}
	if _, ok := obj.values[key]; !ok {
		obj.keys = append(obj.keys, key)
	}
	obj.values[key] = value
}

// MarshalJSON implements the json.Marshaler interface, keeping the key order
func (obj JSONObject) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	buf.WriteByte('{')
	for i, key := range obj.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeJSON(buf, key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeJSON(buf, obj.values[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeJSON writes v without escaping `<`, `>` and `&`, which are common in
// version ranges.
func encodeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// strip the newline added by Encode
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON implements type json.Unmarshaler interface
func (obj *JSONObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	// don't convert number to float64
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expect JSON object open with '{'")
	}

	err = obj.parse(dec)
	if err != nil {
		return err
	}

	t, err = dec.Token()
	if err != io.EOF {
		return fmt.Errorf("expect end of JSON object but got more token: %T: %v or err: %v", t, t, err)
	}

	return nil
}

func (obj *JSONObject) parse(dec *json.Decoder) (err error) {
	var t json.Token
	for dec.More() {
		t, err = dec.Token()
		if err != nil {
			return err
		}

		key, ok := t.(string)
		if !ok {
			return fmt.Errorf("expecting JSON key should be always a string: %T: %v", t, t)
		}

		t, err = dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		var value any
		value, err = handleDelim(t, dec)
		if err != nil {
			return err
		}

		obj.Set(key, value)
	}

	t, err = dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '}' {
		return fmt.Errorf("expect JSON object close with '}'")
	}

	return nil
}

func parseArray(dec *json.Decoder) (arr []any, err error) {
	var t json.Token
	arr = make([]any, 0)
	for dec.More() {
		t, err = dec.Token()
		if err != nil {
			return
		}

		var value any
		value, err = handleDelim(t, dec)
		if err != nil {
			return
		}
		arr = append(arr, value)
	}
	t, err = dec.Token()
	if err != nil {
		return
	}
	if delim, ok := t.(json.Delim); !ok || delim != ']' {
		err = fmt.Errorf("expect JSON array close with ']'")
		return
	}

	return
}

func handleDelim(t json.Token, dec *json.Decoder) (res any, err error) {
	if delim, ok := t.(json.Delim); ok {
		switch delim {
		case '{':
			obj := JSONObject{
				values: make(map[string]any),
			}
			err = obj.parse(dec)
			if err != nil {
				return
			}
			return obj, nil
		case '[':
			var value []any
			value, err = parseArray(dec)
			if err != nil {
				return
			}
			return value, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter: %q", delim)
		}
	}
	return t, nil
}

// ParseJSONValue parses any JSON value, decoding objects as ordered JSONObjects.
func ParseJSONValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	value, err := handleDelim(t, dec)
	if err != nil {
		return nil, err
	}
	if t, err = dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("expect end of JSON value but got more token: %T: %v or err: %v", t, t, err)
	}
	return value, nil
}

func parseRawValue(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	return ParseJSONValue(raw)
}

// parseBin normalizes the `bin` field; a string names the binary after the
// package (scope stripped), a map keeps its declaration order.
func parseBin(pkgName string, raw json.RawMessage) ([]BinEntry, error) {
	v, err := parseRawValue(raw)
	if err != nil || v == nil {
		return nil, err
	}
	switch bin := v.(type) {
	case string:
		if bin == "" {
			return nil, nil
		}
		return []BinEntry{{Name: path.Base(pkgName), Path: bin}}, nil
	case JSONObject:
		entries := make([]BinEntry, 0, bin.Len())
		for _, name := range bin.Keys() {
			v, _ := bin.Get(name)
			if s, ok := v.(string); ok && s != "" {
				entries = append(entries, BinEntry{Name: name, Path: s})
			}
		}
		return entries, nil
	}
	return nil, nil
}

type JSONAny struct {
	Str string
	Map map[string]any
	Any any
}

func (a *JSONAny) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		a.Str = s
		return nil
	}
	var m map[string]any
	if json.Unmarshal(b, &m) == nil {
		a.Map = m
		return nil
	}
	return json.Unmarshal(b, &a.Any)
}

func (a *JSONAny) MainString() string {
	if a.Str != "" {
		return a.Str
	}
	if a.Map != nil {
		if v, ok := a.Map["."]; ok {
			if s, isStr := v.(string); isStr {
				return s
			}
		}
	}
	return ""
}

func toStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	deps := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && k != "" {
			deps[k] = s
		}
	}
	return deps
}
