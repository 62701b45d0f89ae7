package exports

import (
	"strconv"

	"github.com/visulima/packem-sub001/internal/npm"
)

// ExportValue is a node of an `exports` field: a StringExport leaf or a
// ConditionMapExport holding nested values.
type ExportValue interface {
	isExportValue()
}

// StringExport is a target path.
type StringExport struct {
	Path string
}

// ConditionMapExport is an object of subpaths or conditions. Keys keep the
// declaration order of the manifest. JSON arrays are represented with
// numeric keys ("0", "1", ...).
type ConditionMapExport struct {
	Keys   []string
	Values map[string]ExportValue
}

func (StringExport) isExportValue()       {}
func (ConditionMapExport) isExportValue() {}

// FromJSON converts a raw `exports` value as decoded by the npm package into
// an ExportValue. `null` branches and values of other JSON types are dropped,
// nil is returned for an empty field.
func FromJSON(v any) ExportValue {
	switch v := v.(type) {
	case string:
		if v == "" {
			return nil
		}
		return StringExport{Path: v}
	case npm.JSONObject:
		m := ConditionMapExport{Values: make(map[string]ExportValue, v.Len())}
		for _, key := range v.Keys() {
			raw, _ := v.Get(key)
			if value := FromJSON(raw); value != nil {
				m.Keys = append(m.Keys, key)
				m.Values[key] = value
			}
		}
		return m
	case []any:
		m := ConditionMapExport{Values: make(map[string]ExportValue, len(v))}
		for i, raw := range v {
			if value := FromJSON(raw); value != nil {
				key := strconv.Itoa(i)
				m.Keys = append(m.Keys, key)
				m.Values[key] = value
			}
		}
		return m
	}
	return nil
}
