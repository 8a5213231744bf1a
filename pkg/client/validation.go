package client

import (
	"encoding/json"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/wilhg/agui/pkg/errmodel"
	"github.com/wilhg/agui/pkg/types"
)

// ValidateTools compiles every tool's parameter schema and reports the first
// invalid one as a config error. It validates no instance data; the server
// interprets the schemas, the client only refuses to send broken ones.
func ValidateTools(tools []types.Tool) error {
	for _, t := range tools {
		if t.Name == "" {
			return errmodel.Config("tool with empty name")
		}
		if err := compileSchema(t.Parameters); err != nil {
			return errmodel.Config("tool " + t.Name + ": invalid parameters schema: " + err.Error())
		}
	}
	return nil
}

func compileSchema(schema []byte) error {
	if len(schema) == 0 {
		return nil
	}
	c := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return err
	}
	if err := c.AddResource("mem://schema.json", doc); err != nil {
		return err
	}
	_, err := c.Compile("mem://schema.json")
	return err
}
