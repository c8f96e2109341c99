package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// maxDecodeDepth bounds YAML alias expansion and JSON nesting while decoding.
const maxDecodeDepth = 10000

// Encoder writes validated values to a wire format.
type Encoder interface {
	ContentType() string
	Encode(w io.Writer, v any) error
}

// Decoder reads raw input from a wire format. Mappings decode to *Mapping so
// that key order survives; an empty document decodes to Absent.
type Decoder interface {
	ContentType() string
	Decode(r io.Reader) (any, error)
}

// Codec is both an Encoder and a Decoder.
type Codec interface {
	Encoder
	Decoder
}

// jsonCodec implements Codec for JSON.
type jsonCodec struct{}

func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Encode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(Encode(v))
}

func (jsonCodec) Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeJSONValue(dec, 0)
	if errors.Is(err, io.EOF) {
		return Absent, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("json: unexpected data after top-level value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder, depth int) (any, error) {
	if depth > maxDecodeDepth {
		return nil, errors.New("json: nesting too deep")
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, truncated(err, depth)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		m := NewMapping()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, truncated(err, 1)
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("json: object key %v is not a string", kt)
			}
			v, err := decodeJSONValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, truncated(err, 1)
		}
		return m, nil
	case '[':
		out := []any{}
		for dec.More() {
			v, err := decodeJSONValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, truncated(err, 1)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("json: unexpected delimiter %q", delim)
	}
}

// truncated reports EOF below the top-level value as an unexpected EOF, so
// that only a document with no value at all decodes to Absent.
func truncated(err error, depth int) error {
	if depth > 0 && errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// yamlCodec implements Codec for YAML.
type yamlCodec struct{}

func (yamlCodec) ContentType() string { return "application/yaml" }

func (yamlCodec) Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Encode(v)); err != nil {
		return err
	}
	return enc.Close()
}

func (yamlCodec) Decode(r io.Reader) (any, error) {
	var doc yaml.Node
	err := yaml.NewDecoder(r).Decode(&doc)
	if errors.Is(err, io.EOF) {
		return Absent, nil
	}
	if err != nil {
		return nil, err
	}
	return fromYAML(&doc, 0)
}

func fromYAML(n *yaml.Node, depth int) (any, error) {
	if depth > maxDecodeDepth {
		return nil, errors.New("yaml: nesting too deep")
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Absent, nil
		}
		return fromYAML(n.Content[0], depth)
	case yaml.MappingNode:
		m := NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("yaml: line %d: mapping key must be a scalar", k.Line)
			}
			v, err := fromYAML(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.AliasNode:
		return fromYAML(n.Alias, depth+1)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("yaml: line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

// codecs lists the built-in codecs. Index 0 (JSON) is the default.
var codecs = []Codec{jsonCodec{}, yamlCodec{}}

// JSON returns the JSON codec.
func JSON() Codec { return codecs[0] }

// YAML returns the YAML codec.
func YAML() Codec { return codecs[1] }

// CodecFor returns the codec for a media type ("application/json"), a short
// name ("yaml"), or a file name with a known extension ("body.yml"). An empty
// string selects JSON.
func CodecFor(name string) (Codec, bool) {
	if name == "" {
		return codecs[0], true
	}
	if mediaType, _, err := mime.ParseMediaType(name); err == nil {
		for _, c := range codecs {
			if c.ContentType() == mediaType {
				return c, true
			}
		}
		switch mediaType {
		case "text/yaml", "application/x-yaml":
			return codecs[1], true
		}
	}
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "json":
		return codecs[0], true
	case "yaml", "yml":
		return codecs[1], true
	}
	switch strings.ToLower(name) {
	case "json":
		return codecs[0], true
	case "yaml", "yml":
		return codecs[1], true
	}
	return nil, false
}

// DecodeJSON decodes JSON text into raw input.
func DecodeJSON(data []byte) (any, error) {
	return jsonCodec{}.Decode(bytes.NewReader(data))
}

// DecodeYAML decodes a YAML document into raw input.
func DecodeYAML(data []byte) (any, error) {
	return yamlCodec{}.Decode(bytes.NewReader(data))
}

// Encode converts a value tree into JSON-compatible data: objects and maps
// become ordered *Mapping values, sets become slices, date-times become RFC
// 3339 strings, and UUIDs become their canonical string form. The result is
// valid raw input for the schema that produced v.
func Encode(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case absent:
		return nil
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case uuid.UUID:
		return x.String()
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case *ObjectValue:
		m := NewMapping()
		for _, k := range x.keys {
			m.Set(k, Encode(x.vals[k]))
		}
		return m
	case *MapValue:
		m := NewMapping()
		for _, e := range x.entries {
			m.Set(keyString(e.Key), Encode(e.Value))
		}
		return m
	case *Mapping:
		m := NewMapping()
		for _, k := range x.keys {
			m.Set(k, Encode(x.vals[k]))
		}
		return m
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Encode(e)
		}
		return out
	case SetValue:
		return encodeSlice(x)
	case []any:
		return encodeSlice(x)
	default:
		return v
	}
}

func encodeSlice(items []any) []any {
	out := make([]any, len(items))
	for i, e := range items {
		out[i] = Encode(e)
	}
	return out
}

// keyString renders a coerced map key as a JSON object key.
func keyString(k any) string {
	switch x := k.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case uuid.UUID:
		return x.String()
	default:
		return fmt.Sprint(k)
	}
}

// MarshalJSON encodes the mapping with keys in insertion order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	return marshalOrdered(m.keys, func(k string) any { return m.vals[k] })
}

// MarshalYAML encodes the mapping with keys in insertion order.
func (m *Mapping) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		var kn, vn yaml.Node
		if err := kn.Encode(k); err != nil {
			return nil, err
		}
		if err := vn.Encode(Encode(m.vals[k])); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &kn, &vn)
	}
	return node, nil
}
