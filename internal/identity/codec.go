package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Codec encodes and decodes a registry file.
type Codec interface {
	Marshal(reg *Registry) ([]byte, error)
	Unmarshal(data []byte, reg *Registry) error
}

// CodecFor picks a codec from the registry file's extension. Unknown
// extensions use JSON.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlCodec{}
	case ".toml":
		return tomlCodec{}
	default:
		return jsonCodec{}
	}
}

type jsonCodec struct{}

func (jsonCodec) Marshal(reg *Registry) ([]byte, error) {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (jsonCodec) Unmarshal(data []byte, reg *Registry) error {
	return json.Unmarshal(data, reg)
}

type yamlCodec struct{}

func (yamlCodec) Marshal(reg *Registry) ([]byte, error) {
	return yaml.Marshal(reg)
}

func (yamlCodec) Unmarshal(data []byte, reg *Registry) error {
	// yaml accepts an empty document; an empty registry file is still malformed.
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("empty document")
	}
	return yaml.Unmarshal(data, reg)
}

type tomlCodec struct{}

func (tomlCodec) Marshal(reg *Registry) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(reg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tomlCodec) Unmarshal(data []byte, reg *Registry) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("empty document")
	}
	_, err := toml.Decode(string(data), reg)
	return err
}
