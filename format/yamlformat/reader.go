package yamlformat

import (
	"encoding/base64"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/blockberries/shapecraft/pkg/shape"
	"github.com/blockberries/shapecraft/pkg/shapeerr"
)

// cursor walks one open mapping or sequence node's Content slice. For a
// mapping, Content alternates key, value, key, value...; idx always lands
// on the next key (or, after NextField/NextMapKey advances past a pair,
// the key after that).
type cursor struct {
	node *yaml.Node
	idx  int
}

// Reader implements pkg/deser.Format over a parsed *yaml.Node document.
// pending is the node the next Begin*/ReadScalar call should interpret;
// it starts at the document's root and is advanced by NextField/
// NextElement/NextMapKey.
type Reader struct {
	pending *yaml.Node
	cursors []*cursor
}

// NewReader parses data as a single YAML document.
func NewReader(data []byte) (*Reader, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = doc.Content[0]
	}
	return &Reader{pending: root}, nil
}

func (r *Reader) span(n *yaml.Node) shapeerr.Span {
	if n == nil {
		return shapeerr.Span{}
	}
	return shapeerr.Span{Start: n.Line, End: n.Line}
}

func (r *Reader) ReadScalar(expect shape.ScalarKind) (any, shapeerr.Span, error) {
	n := resolve(r.pending)
	span := r.span(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return nil, span, shapeerr.NewDeser(span, "", "expected scalar value", shapeerr.ErrTypeMismatch)
	}
	v, err := decodeScalar(n, expect)
	if err != nil {
		return nil, span, shapeerr.NewDeser(span, "", err.Error(), shapeerr.ErrTypeMismatch)
	}
	return v, span, nil
}

func decodeScalar(n *yaml.Node, expect shape.ScalarKind) (any, error) {
	switch expect {
	case shape.ScalarBool:
		return strconv.ParseBool(n.Value)
	case shape.ScalarString:
		return n.Value, nil
	case shape.ScalarBytes:
		if n.Tag == "!!binary" {
			return base64.StdEncoding.DecodeString(n.Value)
		}
		return []byte(n.Value), nil
	case shape.ScalarFloat32, shape.ScalarFloat64:
		return strconv.ParseFloat(n.Value, 64)
	case shape.ScalarInt, shape.ScalarInt8, shape.ScalarInt16, shape.ScalarInt32, shape.ScalarInt64:
		return strconv.ParseInt(n.Value, 10, 64)
	case shape.ScalarUint, shape.ScalarUint8, shape.ScalarUint16, shape.ScalarUint32, shape.ScalarUint64:
		return strconv.ParseUint(n.Value, 10, 64)
	default:
		return n.Value, nil
	}
}

func (r *Reader) BeginStruct() (bool, error) {
	n := resolve(r.pending)
	if isNull(n) {
		return false, nil
	}
	if n.Kind != yaml.MappingNode {
		return false, shapeerr.NewDeser(r.span(n), "", "expected mapping for struct", shapeerr.ErrWrongShape)
	}
	r.cursors = append(r.cursors, &cursor{node: n})
	return true, nil
}

func (r *Reader) NextField() (string, bool, error) {
	c := r.cursors[len(r.cursors)-1]
	if c.idx >= len(c.node.Content) {
		return "", false, nil
	}
	key := resolve(c.node.Content[c.idx])
	val := c.node.Content[c.idx+1]
	c.idx += 2
	r.pending = val
	return key.Value, true, nil
}

// SkipValue is a no-op: pending already refers to the node to discard,
// and the next NextField/NextElement/NextMapKey call overwrites it
// without ever needing to have consumed anything.
func (r *Reader) SkipValue() error { return nil }

func (r *Reader) EndStruct() error {
	r.cursors = r.cursors[:len(r.cursors)-1]
	return nil
}

func (r *Reader) BeginList() (bool, error) {
	n := resolve(r.pending)
	if isNull(n) {
		return false, nil
	}
	if n.Kind != yaml.SequenceNode {
		return false, shapeerr.NewDeser(r.span(n), "", "expected sequence for list", shapeerr.ErrWrongShape)
	}
	r.cursors = append(r.cursors, &cursor{node: n})
	return true, nil
}

func (r *Reader) NextElement() (bool, error) {
	c := r.cursors[len(r.cursors)-1]
	if c.idx >= len(c.node.Content) {
		return false, nil
	}
	r.pending = c.node.Content[c.idx]
	c.idx++
	return true, nil
}

func (r *Reader) EndList() error {
	r.cursors = r.cursors[:len(r.cursors)-1]
	return nil
}

func (r *Reader) BeginMap() (bool, error) {
	n := resolve(r.pending)
	if isNull(n) {
		return false, nil
	}
	if n.Kind != yaml.MappingNode {
		return false, shapeerr.NewDeser(r.span(n), "", "expected mapping for map", shapeerr.ErrWrongShape)
	}
	r.cursors = append(r.cursors, &cursor{node: n})
	return true, nil
}

// NextMapKey reads the next entry's key, typed from the key node's YAML
// tag (bool/int/float/string) rather than the map's declared key shape,
// mirroring format/wireformat's NextMapKey: an int key comes back as
// int64, and the engine coerces it to the declared key type (e.g. int32).
func (r *Reader) NextMapKey() (any, bool, error) {
	c := r.cursors[len(r.cursors)-1]
	if c.idx >= len(c.node.Content) {
		return nil, false, nil
	}
	key := resolve(c.node.Content[c.idx])
	val := c.node.Content[c.idx+1]
	c.idx += 2
	r.pending = val

	switch key.Tag {
	case "!!bool":
		v, err := strconv.ParseBool(key.Value)
		return v, true, err
	case "!!int":
		v, err := strconv.ParseInt(key.Value, 10, 64)
		return v, true, err
	case "!!float":
		v, err := strconv.ParseFloat(key.Value, 64)
		return v, true, err
	default:
		return key.Value, true, nil
	}
}

func (r *Reader) EndMap() error {
	r.cursors = r.cursors[:len(r.cursors)-1]
	return nil
}

func (r *Reader) BeginOption() (bool, error) {
	n := resolve(r.pending)
	if isNull(n) {
		return false, nil
	}
	return true, nil
}
