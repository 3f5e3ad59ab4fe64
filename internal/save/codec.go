package save

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Format is a save file encoding.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// FormatFor picks the format from the file extension, or fallback when the
// extension is not recognised.
func FormatFor(path string, fallback Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".msgpack", ".mpk":
		return FormatMsgpack
	default:
		return fallback
	}
}

// Marshal encodes s.
func Marshal(s SaveModel, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatMsgpack:
		return msgpack.Marshal(s)
	default:
		return nil, fmt.Errorf("unknown save format %q", f)
	}
}

// Unmarshal decodes a save.
func Unmarshal(data []byte, f Format) (SaveModel, error) {
	var s SaveModel
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &s)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &s)
	default:
		err = fmt.Errorf("unknown save format %q", f)
	}
	return s, err
}

// WriteFile writes s to path, creating parent directories.
func WriteFile(path string, s SaveModel, fallback Format) (err error) {
	data, err := Marshal(s, FormatFor(path, fallback))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	_, err = f.Write(data)
	return err
}

// ReadFile reads a save from path.
func ReadFile(path string, fallback Format) (SaveModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SaveModel{}, err
	}
	s, err := Unmarshal(data, FormatFor(path, fallback))
	if err != nil {
		return SaveModel{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return s, nil
}
