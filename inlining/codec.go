package inlining

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// segmentDoc is the YAML form of one segment: exactly one of the fields is set.
type segmentDoc struct {
	Declaration *string  `yaml:"declaration,omitempty"`
	Call        *callDoc `yaml:"call,omitempty"`
}

type callDoc struct {
	Site     LocalPath `yaml:"site,flow"`
	Function string    `yaml:"function"`
}

// MarshalYAML encodes the key as its segment list.
func (p PathKey) MarshalYAML() (interface{}, error) {
	docs := make([]segmentDoc, 0, p.n)
	for _, s := range p.Segments() {
		switch s.Kind {
		case DeclarationSegment:
			origin := s.ClosureOrigin
			docs = append(docs, segmentDoc{Declaration: &origin})
		case CallSegment:
			docs = append(docs, segmentDoc{Call: &callDoc{Site: s.CallSite, Function: s.Function}})
		}
	}
	return docs, nil
}

// UnmarshalYAML decodes a segment list.
func (p *PathKey) UnmarshalYAML(value *yaml.Node) error {
	var docs []segmentDoc
	if err := value.Decode(&docs); err != nil {
		return fmt.Errorf("decoding path: %w", err)
	}
	key := RootPath()
	for i, d := range docs {
		switch {
		case d.Declaration != nil && d.Call == nil:
			key = key.Append(Declaration(*d.Declaration))
		case d.Call != nil && d.Declaration == nil:
			key = key.Append(Call(d.Call.Site, d.Call.Function))
		default:
			return fmt.Errorf("line %d: path segment %d must set exactly one of declaration or call", value.Line, i)
		}
	}
	*p = key
	return nil
}

// MarshalYAML encodes the kind as its serialized tag.
func (k Kind) MarshalYAML() (interface{}, error) {
	if _, ok := kindTags[k]; !ok {
		return nil, fmt.Errorf("unknown kind %d", int(k))
	}
	return k.String(), nil
}

// UnmarshalYAML decodes a serialized tag.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var tag string
	if err := value.Decode(&tag); err != nil {
		return err
	}
	parsed, err := ParseKind(tag)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
