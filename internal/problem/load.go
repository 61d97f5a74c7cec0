package problem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads and validates a gold record for the given mode.
func Load(path string, mode Mode) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read problem: %w", err)
	}
	spec, err := Parse(data)
	if err != nil {
		return Spec{}, err
	}
	if err := Validate(spec, mode); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Parse decodes one JSON gold record. Unknown top-level keys are tolerated.
func Parse(data []byte) (Spec, error) {
	var spec Spec
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&spec); err != nil {
		return Spec{}, fmt.Errorf("parse problem: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Spec{}, fmt.Errorf("parse problem: multiple documents are not supported")
		}
		return Spec{}, fmt.Errorf("parse problem: %w", err)
	}
	return spec, nil
}
