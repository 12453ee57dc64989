package document

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// ValidateRoot checks a decoded JSON value against the repository document
// rules: the root is an object and APPS is a list.
func ValidateRoot(v any) error {
	root, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w, got %s", ErrNotObject, kind(v))
	}

	apps, ok := root[keyApps]
	if !ok {
		return ErrMissingApps
	}
	if _, ok := apps.([]any); !ok {
		return fmt.Errorf("%w, got %s", ErrAppsNotList, kind(apps))
	}
	return nil
}

// ParseRoot parses operator-supplied JSON text and validates it as a
// repository document. Syntax errors wrap ErrInvalidJSON.
func ParseRoot(raw []byte) (*Document, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := ValidateRoot(v); err != nil {
		return nil, err
	}

	doc, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return doc, nil
}

// ValidateMetadata checks a decoded metadata document for app. The root must
// hold exactly one key, the upper-cased application id, whose value is a list.
func ValidateMetadata(v any, app string) error {
	root, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w, got %s", ErrNotObject, kind(v))
	}

	want := strings.ToUpper(app)
	value, ok := root[want]
	if !ok {
		for k := range root {
			if strings.EqualFold(k, want) {
				return fmt.Errorf("%w: found %q, expected %q", ErrMetadataKeyCase, k, want)
			}
		}
		return fmt.Errorf("%w: expected %q", ErrMetadataKeyMissing, want)
	}

	if len(root) != 1 {
		others := make([]string, 0, len(root)-1)
		for k := range root {
			if k != want {
				others = append(others, k)
			}
		}
		slices.Sort(others)
		return fmt.Errorf("%w: %s", ErrMetadataExtraKeys, strings.Join(others, ", "))
	}

	if _, ok := value.([]any); !ok {
		return fmt.Errorf("%w: %q is %s", ErrMetadataNotList, want, kind(value))
	}
	return nil
}

// ParseMetadata parses and validates operator-supplied metadata JSON for app.
func ParseMetadata(raw []byte, app string) (json.RawMessage, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := ValidateMetadata(v, app); err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "a list"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return fmt.Sprintf("%T", v)
}
