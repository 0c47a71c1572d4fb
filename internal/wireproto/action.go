package wireproto

import "errors"

// Role identifies which kind of node a request is aimed at.
type Role int

const (
	RoleTracker Role = iota
	RolePeer
)

func (r Role) String() string {
	switch r {
	case RoleTracker:
		return "tracker"
	case RolePeer:
		return "peer"
	default:
		return "unknown"
	}
}

// Encoding is how a request or response body is carried inside a frame.
type Encoding int

const (
	// EncodingJSON marshals the body as a JSON object.
	EncodingJSON Encoding = iota
	// EncodingBytes carries the body as opaque raw bytes (used only by the
	// download action's response, per spec.md §4.2).
	EncodingBytes
)

// Recognized action names (spec.md §6).
const (
	ActionRegFile  = "reg_file"
	ActionList     = "list"
	ActionLoc      = "loc"
	ActionRegChunk = "reg_chunk"
	ActionLeave    = "leave"
	ActionDownload = "download"
	ActionInspect  = "inspect"
)

// ActionSpec describes, for one action name, which roles may serve it,
// which role it is conventionally requested to, and how its request and
// response bodies are encoded. This is the "process-wide table keyed by
// action name" from spec.md §4.2.
type ActionSpec struct {
	Name             string
	ServableBy       []Role
	RequestedToRole  Role
	RequestEncoding  Encoding
	ResponseEncoding Encoding
}

// ServedBy reports whether role may serve this action.
func (s ActionSpec) ServedBy(role Role) bool {
	for _, r := range s.ServableBy {
		if r == role {
			return true
		}
	}
	return false
}

// Registry is the process-wide action dispatch table.
var Registry = map[string]ActionSpec{
	ActionRegFile: {
		Name: ActionRegFile, ServableBy: []Role{RoleTracker}, RequestedToRole: RoleTracker,
		RequestEncoding: EncodingJSON, ResponseEncoding: EncodingJSON,
	},
	ActionList: {
		Name: ActionList, ServableBy: []Role{RoleTracker}, RequestedToRole: RoleTracker,
		RequestEncoding: EncodingJSON, ResponseEncoding: EncodingJSON,
	},
	ActionLoc: {
		Name: ActionLoc, ServableBy: []Role{RoleTracker}, RequestedToRole: RoleTracker,
		RequestEncoding: EncodingJSON, ResponseEncoding: EncodingJSON,
	},
	ActionRegChunk: {
		Name: ActionRegChunk, ServableBy: []Role{RoleTracker}, RequestedToRole: RoleTracker,
		RequestEncoding: EncodingJSON, ResponseEncoding: EncodingJSON,
	},
	ActionLeave: {
		Name: ActionLeave, ServableBy: []Role{RoleTracker}, RequestedToRole: RoleTracker,
		RequestEncoding: EncodingJSON, ResponseEncoding: EncodingJSON,
	},
	ActionDownload: {
		Name: ActionDownload, ServableBy: []Role{RolePeer}, RequestedToRole: RolePeer,
		RequestEncoding: EncodingJSON, ResponseEncoding: EncodingBytes,
	},
	ActionInspect: {
		Name: ActionInspect, ServableBy: []Role{RoleTracker, RolePeer}, RequestedToRole: RolePeer,
		RequestEncoding: EncodingJSON, ResponseEncoding: EncodingJSON,
	},
}

// ErrUnsupportedAction names the condition of an action name that is
// unknown or not servable by the receiving role, per spec.md §4.2/§7.
// Server does not return it: it answers such a request by writing
// NotFoundResponse ({"status": 404}) and closing the connection.
var ErrUnsupportedAction = errors.New("unsupported action")

// Lookup returns the ActionSpec for name, and whether it exists at all.
func Lookup(name string) (ActionSpec, bool) {
	spec, ok := Registry[name]
	return spec, ok
}

// NotFoundResponse is the literal body written back for UnsupportedAction.
var NotFoundResponse = []byte(`{"status":404}`)
