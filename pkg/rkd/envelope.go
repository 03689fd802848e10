package rkd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Fields maps namespace-prefixed element names ("n0:Username") to string
// values or nested Fields.
type Fields map[string]interface{}

// Clone returns a deep copy of f. Nested Fields and map[string]interface{}
// values are copied; other values are shared.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Fields:
		return t.Clone()
	case map[string]interface{}:
		return Fields(t).Clone()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// RequestDescriptor is one outbound call, ready for a Transport.
type RequestDescriptor struct {
	Operation Operation
	// Endpoint is the service address the request is posted to.
	Endpoint string
	// Namespace is the operation's namespace URI.
	Namespace string
	// Action is the WS-Addressing action, Namespace + "/" + Operation.Action().
	Action string
	// Namespaces maps the prefixes used in Header and Body to their URIs.
	Namespaces map[string]string
	Header     Fields
	Body       Fields
}

// Builder turns logical operations into RequestDescriptors and unwraps
// decoded responses. It holds no mutable state.
type Builder struct {
	endpoints Endpoints
}

// NewBuilder creates a Builder addressing the given endpoints.
func NewBuilder(endpoints Endpoints) *Builder {
	return &Builder{endpoints: endpoints}
}

// Endpoints returns the endpoints the builder was created with.
func (b *Builder) Endpoints() Endpoints {
	return b.endpoints
}

// Build describes a call to op in the given capability. Header always gets
// adr:To and adr:Action; caller fields are deep-copied so the descriptor
// does not alias the inputs. Field values are not validated.
func (b *Builder) Build(op Operation, capability Capability, header, body Fields) (*RequestDescriptor, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("operation name is required")
	}

	namespace := b.endpoints.Namespace(capability)
	endpoint := b.endpoints.Endpoint(capability)
	action := namespace + "/" + op.Action()

	h := header.Clone()
	h[PrefixAddressing+":To"] = endpoint
	h[PrefixAddressing+":Action"] = action

	return &RequestDescriptor{
		Operation: op,
		Endpoint:  endpoint,
		Namespace: namespace,
		Action:    action,
		Namespaces: map[string]string{
			PrefixAddressing: AddressingNamespace,
			PrefixOperation:  namespace,
			PrefixCommon:     b.endpoints.Namespace(Common),
		},
		Header: h,
		Body:   body.Clone(),
	}, nil
}

// Parse extracts the result node named resultKey from a decoded response.
// It fails with *MalformedResponseError when the node is missing or is not a
// mapping; it never returns a partially filled Response.
func (b *Builder) Parse(raw Fields, resultKey string) (Response, error) {
	node, ok := raw[resultKey]
	if !ok {
		return nil, &MalformedResponseError{
			Key:    resultKey,
			Reason: fmt.Sprintf("key not present (have %s)", strings.Join(raw.Keys(), ", ")),
		}
	}

	var m Fields
	switch t := node.(type) {
	case Fields:
		m = t
	case map[string]interface{}:
		m = Fields(t)
	default:
		return nil, &MalformedResponseError{
			Key:    resultKey,
			Reason: fmt.Sprintf("expected a mapping, got %T", node),
		}
	}
	return Response(m.Clone()), nil
}

// Response is an operation's result node, keyed by snake_case field name.
type Response map[string]interface{}

// String returns the string value at key.
func (r Response) String(key string) (string, error) {
	v, ok := r[key]
	if !ok {
		return "", &MalformedResponseError{Key: key, Reason: "field missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &MalformedResponseError{Key: key, Reason: fmt.Sprintf("expected a string, got %T", v)}
	}
	return s, nil
}

// Time returns the timestamp at key. Unix seconds (integer, float or numeric
// string) and RFC 3339 date-times are accepted.
func (r Response) Time(key string) (time.Time, error) {
	v, ok := r[key]
	if !ok {
		return time.Time{}, &MalformedResponseError{Key: key, Reason: "field missing"}
	}

	switch t := v.(type) {
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC(), nil
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts, nil
		}
		return time.Time{}, &MalformedResponseError{Key: key, Reason: fmt.Sprintf("unrecognised timestamp %q", t)}
	default:
		return time.Time{}, &MalformedResponseError{Key: key, Reason: fmt.Sprintf("expected a timestamp, got %T", v)}
	}
}
