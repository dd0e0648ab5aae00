package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/multimediallc/protinfo/internal/config"
)

func main() {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		ExpandedStruct:             true,
		FieldNameTag:               "toml",
		RequiredFromJSONSchemaTags: true,
	}

	schema := r.Reflect(&config.Config{})
	schema.Title = "protinfo configuration"
	schema.Description = "Schema for protinfo.toml."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling schema: %v", err)
	}

	if err := os.WriteFile("protinfo.schema.json", data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated protinfo schema at protinfo.schema.json")
}
