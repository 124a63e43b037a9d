// Package yamlformat is a Format/Serializer pair over gopkg.in/yaml.v3's
// already-parsed *yaml.Node tree. Unlike format/wireformat, which speaks a
// flat byte stream, this adapter never touches bytes directly: Unmarshal
// hands the raw document to yaml.Unmarshal and walks the resulting Node
// tree, and Marshal builds a Node tree and hands it to yaml.Marshal. The
// engines (pkg/deser, pkg/ser) are no different for it; Format and
// Serializer are satisfied by tree navigation instead of a cursor over
// bytes, the same seam format/wireformat fills with beginMessage/
// endMessage checkpoints.
package yamlformat

import (
	"gopkg.in/yaml.v3"

	"github.com/blockberries/shapecraft/pkg/deser"
	"github.com/blockberries/shapecraft/pkg/peek"
	"github.com/blockberries/shapecraft/pkg/ser"
)

// Marshal encodes v as a YAML document.
func Marshal[T any](v T) ([]byte, error) {
	w := NewWriter()
	if err := ser.Serialize(peek.Of(v), w, ser.Options{}); err != nil {
		return nil, err
	}
	return yaml.Marshal(w.Node())
}

// MarshalOptions is Marshal with explicit serialization options.
func MarshalOptions[T any](v T, opts ser.Options) ([]byte, error) {
	w := NewWriter()
	if err := ser.Serialize(peek.Of(v), w, opts); err != nil {
		return nil, err
	}
	return yaml.Marshal(w.Node())
}

// Unmarshal decodes a YAML document into a value of type T.
func Unmarshal[T any](data []byte) (T, error) {
	var zero T
	r, err := NewReader(data)
	if err != nil {
		return zero, err
	}
	return deser.Deserialize[T](r, deser.DefaultOptions())
}

// UnmarshalOptions is Unmarshal with explicit deserialization options.
func UnmarshalOptions[T any](data []byte, opts deser.Options) (T, error) {
	var zero T
	r, err := NewReader(data)
	if err != nil {
		return zero, err
	}
	return deser.Deserialize[T](r, opts)
}

// isNull reports whether n represents an explicit YAML null (bare `~`,
// `null`, or an empty scalar).
func isNull(n *yaml.Node) bool {
	return n == nil || n.Tag == "!!null"
}

// resolve follows a single alias hop, if any. yaml.v3 resolves anchors
// into Alias nodes rather than inlining their content.
func resolve(n *yaml.Node) *yaml.Node {
	if n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		return n.Alias
	}
	return n
}
