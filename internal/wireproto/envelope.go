package wireproto

import "encoding/json"

// requestEnvelope is the wire shape of every request:
// {"action": <name>, "args": {...}}.
type requestEnvelope struct {
	Action string                 `json:"action"`
	Args   map[string]interface{} `json:"args"`
}

// EncodeRequest marshals args (any JSON-marshalable struct or map) into the
// request envelope for action, injecting args.address = ownAddress so the
// receiver knows who is calling, per spec.md §4.1.
func EncodeRequest(action string, args interface{}, ownAddress string) ([]byte, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	m := map[string]interface{}{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
	}
	m["address"] = ownAddress
	return json.Marshal(requestEnvelope{Action: action, Args: m})
}

// DecodeRequest splits a request payload into its action name and raw
// argument map.
func DecodeRequest(payload []byte) (action string, args map[string]interface{}, err error) {
	var env requestEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", nil, err
	}
	return env.Action, env.Args, nil
}

// ArgsToStruct re-marshals a decoded argument map into a concrete struct.
func ArgsToStruct(args map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// AddressOf extracts the "address" field every request carries.
func AddressOf(args map[string]interface{}) string {
	if v, ok := args["address"].(string); ok {
		return v
	}
	return ""
}
