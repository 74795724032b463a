package todo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const snapshotSchemaURL = "todos.schema.json"

// snapshotSchema describes a stored snapshot. Unknown item fields are allowed
// so snapshots written with an editing flag still load.
const snapshotSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "completed"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "title": {"type": "string", "pattern": "\\S"},
      "completed": {"type": "boolean"},
      "editing": {"type": "boolean"}
    }
  }
}`

var compiledSnapshotSchema = mustCompileSnapshotSchema()

func mustCompileSnapshotSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(snapshotSchemaURL, strings.NewReader(snapshotSchema)); err != nil {
		panic(fmt.Sprintf("add snapshot schema: %v", err))
	}
	return compiler.MustCompile(snapshotSchemaURL)
}

// storedItem is the persisted form of an Item.
type storedItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// ValidationError reports a snapshot that does not match the schema.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// EncodeSnapshot serializes items in stored form. The editing flag is dropped.
func EncodeSnapshot(items []Item) (string, error) {
	stored := make([]storedItem, len(items))
	for i, it := range items {
		stored[i] = storedItem{ID: it.ID, Title: it.Title, Completed: it.Completed}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// DecodeSnapshot parses and validates a stored snapshot. Titles are trimmed
// and editing flags cleared. Duplicate ids make the whole snapshot invalid.
func DecodeSnapshot(raw string) ([]Item, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := compiledSnapshotSchema.Validate(doc); err != nil {
		return nil, schemaError(err)
	}

	var stored []storedItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	items := make([]Item, 0, len(stored))
	seen := make(map[string]int, len(stored))
	for i, s := range stored {
		if first, dup := seen[s.ID]; dup {
			return nil, &ValidationError{
				Path: fmt.Sprintf("[%d].id", i),
				Err:  fmt.Errorf("duplicate id %q (first at [%d])", s.ID, first),
			}
		}
		seen[s.ID] = i
		title := strings.TrimSpace(s.Title)
		if title == "" {
			return nil, &ValidationError{
				Path: fmt.Sprintf("[%d].title", i),
				Err:  fmt.Errorf("title is blank"),
			}
		}
		items = append(items, Item{
			ID:        s.ID,
			Title:     title,
			Completed: s.Completed,
		})
	}
	return items, nil
}

// schemaError reduces a schema failure to its first leaf cause.
func schemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &ValidationError{
		Path: jsonPointerToPath(ve.InstanceLocation),
		Err:  fmt.Errorf("%s", ve.Message),
	}
}

// jsonPointerToPath converts "/0/title" to "[0].title".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	path := ""
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}
	return path
}
