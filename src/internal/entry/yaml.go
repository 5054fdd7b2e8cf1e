package entry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToYAML renders the entry as one explicitly delimited YAML document:
//
//	---
//	<label>:
//	  KEY: value
//	...
//
// Field keys are sorted.
func (e *Entry) ToYAML() (string, error) {
	fields := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range e.Fields.sortedKeys() {
		v, _ := e.Fields.Get(k)
		fields.Content = append(fields.Content, strNode(k), valueNode(v))
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{strNode(e.Label), fields}}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode %s: %w", e.Label, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode %s: %w", e.Label, err)
	}
	return "---\n" + buf.String() + "...\n", nil
}

func strNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.Contains(s, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func valueNode(v any) *yaml.Node {
	switch t := v.(type) {
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, s := range t {
			seq.Content = append(seq.Content, strNode(s))
		}
		return seq
	case string:
		return strNode(t)
	}
	return strNode("")
}

// ParseYAML decodes every document in s. Each document maps labels to field
// mappings. A label that appears again replaces the earlier entry; the
// repeated labels are returned so the caller can report them.
func ParseYAML(s string) (*Batch, []string, error) {
	b := NewBatch()
	var dups []string
	dec := yaml.NewDecoder(strings.NewReader(s))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if len(doc.Content) == 0 {
			continue
		}
		root := doc.Content[0]
		if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
			continue
		}
		if root.Kind != yaml.MappingNode {
			return nil, nil, fmt.Errorf("expected a mapping of labels at line %d", root.Line)
		}
		for i := 0; i+1 < len(root.Content); i += 2 {
			label := root.Content[i].Value
			fields, err := decodeFields(root.Content[i+1])
			if err != nil {
				return nil, nil, fmt.Errorf("entry %s: %w", label, err)
			}
			if b.Has(label) {
				dups = append(dups, label)
				b.Delete(label)
			}
			b.Set(New(label, fields))
		}
	}
	return b, dups, nil
}

func decodeFields(n *yaml.Node) (*Fields, error) {
	f := NewFields()
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return f, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a field mapping at line %d", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			if val.Tag == "!!null" {
				f.Set(key, "")
				continue
			}
			f.Set(key, val.Value)
		case yaml.SequenceNode:
			list := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("field %s: nested values are not supported", key)
				}
				list = append(list, item.Value)
			}
			f.SetList(key, list)
		default:
			return nil, fmt.Errorf("field %s: nested values are not supported", key)
		}
	}
	return f, nil
}
