package document

import (
	"fmt"
	"strings"
)

// Identity separates the identifier an application is read under from the
// identifier it is written under. Write is always the lower-cased application
// id; Read differs only when a read alias is configured.
type Identity struct {
	Read  string `json:"read"`
	Write string `json:"write"`
}

// FindApplication returns the application whose name matches app,
// ignoring case. The returned pointer aliases d.
func FindApplication(d *Document, app string) (*Application, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Apps {
		if strings.EqualFold(d.Apps[i].Name, app) {
			return &d.Apps[i], true
		}
	}
	return nil, false
}

// FindIdentity looks the application up by its read identifier first and
// falls back to the write identifier.
func FindIdentity(d *Document, id Identity) (*Application, bool) {
	if app, ok := FindApplication(d, id.Read); ok {
		return app, true
	}
	return FindApplication(d, id.Write)
}

// ReplacePromptContent returns a copy of d in which the content of the
// application's prompt at index is replaced by lines and the application is
// renamed to the write identifier. d is never modified.
func ReplacePromptContent(d *Document, id Identity, index int, lines []string) (*Document, error) {
	out := d.Clone()

	app, ok := FindIdentity(out, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, id.Read)
	}
	if index < 0 || index >= len(app.Prompts) {
		return nil, fmt.Errorf("%w: %d of %d", ErrPromptIndex, index, len(app.Prompts))
	}

	app.Prompts[index].Content = append(make([]string, 0, len(lines)), lines...)
	app.Name = id.Write
	return out, nil
}

// StampWriteIdentity returns a copy of d with the application renamed to the
// write identifier. The bool reports whether the application was present.
func StampWriteIdentity(d *Document, id Identity) (*Document, bool) {
	out := d.Clone()
	app, ok := FindIdentity(out, id)
	if ok {
		app.Name = id.Write
	}
	return out, ok
}

// JoinContent renders prompt lines as the text presented for editing.
func JoinContent(lines []string) string {
	return strings.Join(lines, "\n")
}

// SplitContent converts edited text back into prompt lines. A trailing
// newline yields a trailing empty line; it is kept as is.
func SplitContent(text string) []string {
	return strings.Split(text, "\n")
}
