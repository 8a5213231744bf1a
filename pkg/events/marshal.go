package events

import (
	"encoding/json"

	"github.com/tidwall/sjson"
	"github.com/wilhg/agui/pkg/errmodel"
)

// Marshal serializes an event into its wire form, injecting the "type"
// discriminator the variant structs don't carry as a field.
func Marshal(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, errmodel.JSON(err)
	}
	data, err = sjson.SetBytes(data, "type", string(ev.Type()))
	if err != nil {
		return nil, errmodel.JSON(err)
	}
	return data, nil
}
