package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	keyApps     = "APPS"
	keyName     = "name"
	keyPrompts  = "prompts"
	keyContent  = "content"
	keyDesc     = "description"
	keyLocation = "location_identifier"
)

func (d Document) MarshalJSON() ([]byte, error) {
	out := withExtra(d.Extra)
	apps := d.Apps
	if apps == nil {
		apps = []Application{}
	}
	if err := set(out, keyApps, apps); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	raw, err := fields(data)
	if err != nil {
		return err
	}
	if err := take(raw, keyApps, &d.Apps); err != nil {
		return err
	}
	d.Extra = rest(raw)
	return nil
}

func (a Application) MarshalJSON() ([]byte, error) {
	out := withExtra(a.Extra)
	prompts := a.Prompts
	if prompts == nil {
		prompts = []Prompt{}
	}
	if err := set(out, keyName, a.Name); err != nil {
		return nil, err
	}
	if err := set(out, keyPrompts, prompts); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (a *Application) UnmarshalJSON(data []byte) error {
	raw, err := fields(data)
	if err != nil {
		return err
	}
	if err := take(raw, keyName, &a.Name); err != nil {
		return err
	}
	if err := take(raw, keyPrompts, &a.Prompts); err != nil {
		return err
	}
	a.Extra = rest(raw)
	return nil
}

func (p Prompt) MarshalJSON() ([]byte, error) {
	out := withExtra(p.Extra)
	if err := set(out, keyName, p.Name); err != nil {
		return nil, err
	}
	if p.Content != nil {
		if err := set(out, keyContent, p.Content); err != nil {
			return nil, err
		}
	}
	if p.Description != nil {
		if err := set(out, keyDesc, *p.Description); err != nil {
			return nil, err
		}
	}
	if p.LocationIdentifier != nil {
		if err := set(out, keyLocation, *p.LocationIdentifier); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

func (p *Prompt) UnmarshalJSON(data []byte) error {
	raw, err := fields(data)
	if err != nil {
		return err
	}
	if err := take(raw, keyName, &p.Name); err != nil {
		return err
	}
	if err := take(raw, keyContent, &p.Content); err != nil {
		return err
	}
	if err := take(raw, keyDesc, &p.Description); err != nil {
		return err
	}
	if err := take(raw, keyLocation, &p.LocationIdentifier); err != nil {
		return err
	}
	p.Extra = rest(raw)
	return nil
}

func fields(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// take decodes raw[key] into dst and removes it from raw. A null value is
// left in raw so it is written back as null.
func take(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil
	}
	delete(raw, key)
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

func set(out map[string]json.RawMessage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	out[key] = data
	return nil
}

func rest(raw map[string]json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
