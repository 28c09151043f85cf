package filetree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the tree in the client wire format, preserving child
// insertion order. Files encode as {"file": {"contents": "..."}}.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Tree) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, name := range t.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')

		switch n := t.nodes[name].(type) {
		case *File:
			contents, err := json.Marshal(n.Contents)
			if err != nil {
				return err
			}
			buf.WriteString(`{"file":{"contents":`)
			buf.Write(contents)
			buf.WriteString(`}}`)
		case *Tree:
			if err := n.encode(buf); err != nil {
				return err
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON decodes the client wire format. Uses a token stream so that
// child insertion order survives the round trip.
func (t *Tree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("file tree: expected object, got %v", tok)
	}

	decoded, err := decodeDir(dec)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// decodeDir consumes object entries up to the closing brace. An entry whose
// node object carries a "file" key is a file leaf; anything else is a nested
// directory. A node may not be both.
func decodeDir(dec *json.Decoder) (*Tree, error) {
	t := New()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("file tree: expected key, got %v", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, fmt.Errorf("file tree: entry %q must be an object", name)
		}

		node, err := decodeNode(dec, name)
		if err != nil {
			return nil, err
		}
		t.Put(name, node)
	}

	// Consume the closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return t, nil
}

// decodeNode reads the body of a node object (opening brace already
// consumed) and returns either a *File or a *Tree.
func decodeNode(dec *json.Decoder, name string) (Node, error) {
	dir := New()
	var file *File

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("file tree: expected key in %q, got %v", name, tok)
		}

		if key == "file" {
			var leaf struct {
				Contents string `json:"contents"`
			}
			if err := dec.Decode(&leaf); err != nil {
				return nil, fmt.Errorf("file tree: bad file leaf %q: %w", name, err)
			}
			file = &File{Contents: leaf.Contents}
			continue
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, fmt.Errorf("file tree: entry %q must be an object", key)
		}
		child, err := decodeNode(dec, key)
		if err != nil {
			return nil, err
		}
		dir.Put(key, child)
	}

	// Consume the closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	if file != nil {
		if dir.Len() > 0 {
			return nil, fmt.Errorf("file tree: %q is both a file and a directory", name)
		}
		return file, nil
	}
	return dir, nil
}

// Parse decodes a JSON-encoded tree
func Parse(data []byte) (*Tree, error) {
	t := New()
	if len(data) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, err
	}
	return t, nil
}
