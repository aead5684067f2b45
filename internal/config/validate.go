package config

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validate compiles schema and checks instance against it, following the
// teacher's config.Validate shape, adapted to return an error instead of
// exiting the process: the config package itself has no business deciding
// fatality, that belongs to the caller (cmd/statsgod, which treats any
// Load error as a FatalInit condition).
func Validate(schema string, instance json.RawMessage) error {
	sch, err := jsonschema.CompileString("statsgod-config.json", schema)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("validating document: %w", err)
	}
	return nil
}
