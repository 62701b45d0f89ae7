package npm

import (
	"fmt"
	"os"
)

// ParsePackageJSON parses and normalizes the content of a package.json.
func ParsePackageJSON(data []byte) (*PackageJSON, error) {
	var p PackageJSON
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &p, nil
}

// ReadPackageJSON reads and normalizes the package.json at the given path.
func ReadPackageJSON(filename string) (*PackageJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	p, err := ParsePackageJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return p, nil
}

// ReadPackageJSONObject reads the package.json at the given path as an ordered
// JSONObject so it can be written back without reordering its keys. The raw
// content is returned along to keep its formatting.
func ReadPackageJSONObject(filename string) (obj JSONObject, data []byte, err error) {
	data, err = os.ReadFile(filename)
	if err != nil {
		return
	}
	if err = obj.UnmarshalJSON(data); err != nil {
		err = fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return
}
