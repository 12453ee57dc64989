// Package document models the prompt repository JSON document and the
// editing and validation operations applied to it before a write.
package document

import (
	"bytes"
	"encoding/json"
	"maps"
)

// Document is the root object persisted for an application. Keys other than
// APPS are kept in Extra and written back unchanged.
type Document struct {
	Apps  []Application
	Extra map[string]json.RawMessage
}

// Application is one entry of the APPS list.
type Application struct {
	Name    string
	Prompts []Prompt
	Extra   map[string]json.RawMessage
}

// Prompt is one named prompt. Content holds the prompt text one line per element.
// Description and LocationIdentifier are opaque and nil when absent. Known
// keys stored as null stay in Extra until a value replaces them.
type Prompt struct {
	Name               string
	Content            []string
	Description        *string
	LocationIdentifier *string
	Extra              map[string]json.RawMessage
}

// Scaffold returns the document used when an application has no stored versions.
func Scaffold(app string) *Document {
	return &Document{
		Apps: []Application{
			{Name: app, Prompts: []Prompt{}},
		},
	}
}

// Template returns an example document offered to operators initializing an
// application that has no prompts yet.
func Template(app string) *Document {
	description := "An example description."
	location := "example.py/my_function()"
	return &Document{
		Apps: []Application{
			{
				Name: app,
				Prompts: []Prompt{
					{
						Name:               "EXAMPLE_PROMPT",
						Description:        &description,
						LocationIdentifier: &location,
						Content: []string{
							"This is line 1 of the prompt content.",
							"This is line 2.",
						},
					},
				},
			},
		},
	}
}

// Clone returns a deep copy that shares no memory with d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Extra: cloneExtra(d.Extra)}
	if d.Apps != nil {
		out.Apps = make([]Application, len(d.Apps))
		for i, app := range d.Apps {
			out.Apps[i] = app.clone()
		}
	}
	return out
}

// Encode serializes the document as indented JSON for storage.
func (d *Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "    ")
}

// Decode parses a stored document.
func Decode(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (a Application) clone() Application {
	out := Application{Name: a.Name, Extra: cloneExtra(a.Extra)}
	if a.Prompts != nil {
		out.Prompts = make([]Prompt, len(a.Prompts))
		for i, p := range a.Prompts {
			out.Prompts[i] = p.clone()
		}
	}
	return out
}

func (p Prompt) clone() Prompt {
	out := Prompt{
		Name:               p.Name,
		Description:        cloneString(p.Description),
		LocationIdentifier: cloneString(p.LocationIdentifier),
		Extra:              cloneExtra(p.Extra),
	}
	if p.Content != nil {
		out.Content = append(make([]string, 0, len(p.Content)), p.Content...)
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneExtra(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = bytes.Clone(v)
	}
	return out
}

func withExtra(m map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(m)+4)
	maps.Copy(out, m)
	return out
}
