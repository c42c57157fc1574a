// Package codec encodes hydrated parents as documents.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/syssam/graft"
)

// Format is a document encoding.
type Format string

// Supported formats.
const (
	JSON    Format = "json"
	MsgPack Format = "msgpack"
	YAML    Format = "yaml"
)

// ParseFormat returns the format named s. The empty string is JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return JSON, nil
	case JSON, MsgPack, YAML:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("codec: unknown format %q", s)
	}
}

// Marshal encodes the documents of parents.
func Marshal(f Format, parents []*graft.Parent, names graft.Names) ([]byte, error) {
	docs := graft.Document(parents, names)
	v := make([]any, len(docs))
	for i, d := range docs {
		v[i] = normalize(d)
	}
	switch f {
	case JSON:
		return json.Marshal(v)
	case MsgPack:
		return msgpack.Marshal(v)
	case YAML:
		return yaml.Marshal(v)
	default:
		return nil, fmt.Errorf("codec: unknown format %q", f)
	}
}

// Unmarshal decodes documents encoded by Marshal. Integers decode as
// float64 from JSON, int from YAML and int64 or uint64 from MessagePack.
func Unmarshal(f Format, data []byte) ([]map[string]any, error) {
	var (
		docs []map[string]any
		err  error
	)
	switch f {
	case JSON:
		err = json.Unmarshal(data, &docs)
	case MsgPack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.UseLooseInterfaceDecoding(true)
		err = dec.Decode(&docs)
	case YAML:
		err = yaml.Unmarshal(data, &docs)
	default:
		return nil, fmt.Errorf("codec: unknown format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", f, err)
	}
	if docs == nil {
		docs = []map[string]any{}
	}
	return docs, nil
}

// normalize rewrites values with no portable encoding in every format.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, x := range v {
			m[k] = normalize(x)
		}
		return m
	case []any:
		s := make([]any, len(v))
		for i, x := range v {
			s[i] = normalize(x)
		}
		return s
	case uuid.UUID:
		return v.String()
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
