package npm

// OverlayPublishConfig returns a copy of the package with the `publishConfig`
// overrides applied. `bin`, `type`, `main`, `module` and `exports` are always
// overridden when set; `types`/`typings` only when the caller has no explicit
// declaration preference.
func OverlayPublishConfig(p *PackageJSON, declarationUnset bool) *PackageJSON {
	overlaid := *p
	c := p.PublishConfig
	if c == nil {
		return &overlaid
	}

	if len(c.Bin) > 0 {
		overlaid.Bin = c.Bin
	}
	if c.Type != "" {
		overlaid.Type = c.Type
	}
	if c.Main != "" {
		overlaid.Main = c.Main
	}
	if c.Module != "" {
		overlaid.Module = c.Module
	}
	if !isEmptyValue(c.Exports) {
		overlaid.Exports = c.Exports
	}
	if declarationUnset {
		if c.Types != "" {
			overlaid.Types = c.Types
		}
		if c.Typings != "" {
			overlaid.Typings = c.Typings
		}
	}
	return &overlaid
}

func isEmptyValue(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case JSONObject:
		return v.Len() == 0
	case []any:
		return len(v) == 0
	}
	return false
}
