package yamlformat

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/blockberries/shapecraft/pkg/shape"
)

// containerFrame tracks one open mapping or sequence node while its
// children are being attached. pendingKey holds a mapping's most recently
// attached key, waiting for the value that completes the pair; it is
// always nil for a sequence frame.
type containerFrame struct {
	node       *yaml.Node
	pendingKey *yaml.Node
}

// Writer implements pkg/ser.Serializer by building a *yaml.Node document
// tree in memory, one frame per open struct/list/map/variant container.
type Writer struct {
	root   *yaml.Node
	frames []*containerFrame
}

// NewWriter returns a Writer ready to serialize a single value.
func NewWriter() *Writer {
	return &Writer{}
}

// Node returns the built document tree's root. Valid once serialization
// is complete.
func (w *Writer) Node() *yaml.Node {
	return w.root
}

// attach places n into whatever slot is currently open: the document
// root if nothing is open yet, a mapping frame's pending value if a key
// is waiting, a mapping frame's pending key otherwise, or the next
// element of a sequence frame.
func (w *Writer) attach(n *yaml.Node) {
	if len(w.frames) == 0 {
		w.root = n
		return
	}
	f := w.frames[len(w.frames)-1]
	if f.node.Kind != yaml.MappingNode {
		f.node.Content = append(f.node.Content, n)
		return
	}
	if f.pendingKey == nil {
		f.pendingKey = n
		return
	}
	f.node.Content = append(f.node.Content, f.pendingKey, n)
	f.pendingKey = nil
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func (w *Writer) WriteScalar(v any, k shape.ScalarKind) error {
	w.attach(scalarNodeFor(v, k))
	return nil
}

func scalarNodeFor(v any, k shape.ScalarKind) *yaml.Node {
	switch k {
	case shape.ScalarBool:
		return scalarNode("!!bool", strconv.FormatBool(v.(bool)))
	case shape.ScalarString:
		return scalarNode("!!str", v.(string))
	case shape.ScalarBytes:
		return scalarNode("!!binary", base64.StdEncoding.EncodeToString(v.([]byte)))
	case shape.ScalarFloat32:
		return scalarNode("!!float", strconv.FormatFloat(float64(v.(float32)), 'g', -1, 32))
	case shape.ScalarFloat64:
		return scalarNode("!!float", strconv.FormatFloat(v.(float64), 'g', -1, 64))
	case shape.ScalarInt, shape.ScalarInt8, shape.ScalarInt16, shape.ScalarInt32, shape.ScalarInt64:
		return scalarNode("!!int", strconv.FormatInt(asInt64(v), 10))
	case shape.ScalarUint, shape.ScalarUint8, shape.ScalarUint16, shape.ScalarUint32, shape.ScalarUint64:
		return scalarNode("!!int", strconv.FormatUint(asUint64(v), 10))
	default:
		// Other: custom scalars round-trip through their Display string,
		// the same FromStr coercion the decode side expects.
		return scalarNode("!!str", fmt.Sprintf("%v", v))
	}
}

func (w *Writer) BeginStruct() error {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	w.attach(n)
	w.frames = append(w.frames, &containerFrame{node: n})
	return nil
}

func (w *Writer) WriteFieldName(name string) error {
	w.attach(scalarNode("!!str", name))
	return nil
}

func (w *Writer) EndStruct() error {
	w.frames = w.frames[:len(w.frames)-1]
	return nil
}

func (w *Writer) BeginList(length int) error {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	w.attach(n)
	w.frames = append(w.frames, &containerFrame{node: n})
	return nil
}

func (w *Writer) EndList() error {
	w.frames = w.frames[:len(w.frames)-1]
	return nil
}

func (w *Writer) BeginMap(length int) error {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	w.attach(n)
	w.frames = append(w.frames, &containerFrame{node: n})
	return nil
}

func (w *Writer) WriteMapKey(key any) error {
	w.attach(dynamicScalarNode(key))
	return nil
}

func (w *Writer) EndMap() error {
	w.frames = w.frames[:len(w.frames)-1]
	return nil
}

// WriteOptionNone and WriteNilPointer both emit a bare YAML null scalar;
// BeginOptionSome/EndOption/BeginPointee/EndPointee are no-ops since a
// present value needs no wrapper node of its own in a tree format.
func (w *Writer) WriteOptionNone() error {
	w.attach(scalarNode("!!null", "null"))
	return nil
}

func (w *Writer) BeginOptionSome() error { return nil }
func (w *Writer) EndOption() error       { return nil }

func (w *Writer) WriteNilPointer() error {
	w.attach(scalarNode("!!null", "null"))
	return nil
}

func (w *Writer) BeginPointee() error { return nil }
func (w *Writer) EndPointee() error   { return nil }

// BeginVariant/EndVariant produce the same {name: value} mapping shape
// BeginStruct+WriteFieldName+EndStruct would, since the read side
// (pkg/deser's driveEnum) has no dedicated variant methods and decodes a
// tagged variant as an ordinary one-field struct.
func (w *Writer) BeginVariant(name string) error {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	w.attach(n)
	w.frames = append(w.frames, &containerFrame{node: n})
	w.attach(scalarNode("!!str", name))
	return nil
}

func (w *Writer) EndVariant() error {
	w.frames = w.frames[:len(w.frames)-1]
	return nil
}

// dynamicScalarNode encodes a map key whose static ScalarKind the
// Serializer interface doesn't carry, picking the nearest YAML tag from
// the key's Go kind.
func dynamicScalarNode(key any) *yaml.Node {
	switch v := key.(type) {
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(v))
	case string:
		return scalarNode("!!str", v)
	case float32:
		return scalarNode("!!float", strconv.FormatFloat(float64(v), 'g', -1, 32))
	case float64:
		return scalarNode("!!float", strconv.FormatFloat(v, 'g', -1, 64))
	default:
		rv := reflect.ValueOf(key)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return scalarNode("!!int", strconv.FormatInt(rv.Int(), 10))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return scalarNode("!!int", strconv.FormatUint(rv.Uint(), 10))
		default:
			return scalarNode("!!str", fmt.Sprintf("%v", key))
		}
	}
}

func asInt64(v any) int64 {
	rv := reflect.ValueOf(v)
	if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Int64 {
		return rv.Int()
	}
	return 0
}

func asUint64(v any) uint64 {
	rv := reflect.ValueOf(v)
	if rv.Kind() >= reflect.Uint && rv.Kind() <= reflect.Uintptr {
		return rv.Uint()
	}
	return 0
}
