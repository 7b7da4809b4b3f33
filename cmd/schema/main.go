// Command schema writes JSON schema of the stageside configuration.
// With --check it compares the schema with the existing file instead and fails if they differ.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/jessevdk/go-flags"

	"github.com/stageside/stageside/pkg/config"
)

type options struct {
	Check bool `long:"check" description:"verify the existing schema file is up to date"`
	Args  struct {
		Output string `positional-arg-name:"output" default:"schema.json"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	data, err := generate()
	if err != nil {
		log.Fatalf("failed to generate schema: %v", err)
	}

	if opts.Check {
		current, err := os.ReadFile(opts.Args.Output)
		if err != nil {
			log.Fatalf("failed to read schema file: %v", err)
		}
		if !bytes.Equal(bytes.TrimSpace(current), bytes.TrimSpace(data)) {
			log.Fatalf("schema %s is outdated, run go generate ./pkg/config", opts.Args.Output)
		}
		fmt.Printf("Schema %s is up to date\n", opts.Args.Output)
		return
	}

	if err := os.WriteFile(opts.Args.Output, data, 0o600); err != nil { //nolint:gosec // schema file is not sensitive
		log.Fatalf("failed to write schema file: %v", err)
	}
	fmt.Printf("Schema generated successfully at %s\n", opts.Args.Output)
}

// generate reflects config.Config into indented schema JSON
func generate() ([]byte, error) {
	r := jsonschema.Reflector{}
	schema := r.Reflect(&config.Config{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
