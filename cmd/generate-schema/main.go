// Command generate-schema emits a JSON Schema for the configuration file,
// reflected from the config structs so it never drifts from the code.
// Editors that understand the yaml-language-server directive pick it up for
// completion and validation.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/lansend/lansend/pkg/config"
)

func main() {
	out := flag.String("out", "config.schema.json", "Output path for the schema")
	flag.Parse()

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		// Inline every definition; a single self-contained document is
		// easier for editors to consume than one full of $refs.
		DoNotReference: true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "lansend configuration"
	schema.Description = "Schema for the lansend config file"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal schema: %v\n", err)
		os.Exit(1)
	}
	data = append(data, '\n')

	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Schema written to %s\n", *out)
}
