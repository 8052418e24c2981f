// Package projectfile reads and writes project input files.
//
// Files are Hjson, so plain JSON also decodes. Comments, unquoted keys and
// optional commas are accepted. Numbers are kept as literals until they reach
// decimal.Decimal, so 0.135 in a file is exactly 0.135 in the projection.
package projectfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

// ErrDecode is returned when a file is not a valid project input.
var ErrDecode = errors.New("decode project file")

const header = "# Solar pro-forma project input.\n# Rates are fractions: 0.035 means 3.5%.\n"

// Decode parses Hjson (or JSON) into a project input with defaults applied.
// Unknown keys are rejected. InstallYear stays zero when the file omits it.
func Decode(data []byte) (domain.ProjectInput, error) {
	var raw interface{}
	opts := hjson.DefaultDecoderOptions()
	opts.UseJSONNumber = true
	if err := hjson.UnmarshalWithOptions(data, &raw, opts); err != nil {
		return domain.ProjectInput{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Convert to standard JSON
	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return domain.ProjectInput{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var in domain.ProjectInput
	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return domain.ProjectInput{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return in.WithDefaults(), nil
}

// Load reads and decodes the file at path.
func Load(path string) (domain.ProjectInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ProjectInput{}, fmt.Errorf("read project file: %w", err)
	}
	in, err := Decode(data)
	if err != nil {
		return domain.ProjectInput{}, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Encode renders in as commented Hjson with sorted keys.
func Encode(in domain.ProjectInput) ([]byte, error) {
	jsonBytes, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	var tree map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal input: %w", err)
	}

	body, err := hjson.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode hjson: %w", err)
	}

	out := make([]byte, 0, len(header)+len(body)+1)
	out = append(out, header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// WriteDefault writes the calculator's default input to path.
// Fails if the file already exists.
func WriteDefault(path string, installYear int) error {
	data, err := Encode(domain.DefaultProjectInput(installYear))
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create project file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write project file: %w", err)
	}
	return f.Close()
}
