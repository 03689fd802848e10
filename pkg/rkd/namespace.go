package rkd

import (
	"strconv"
	"strings"
)

// AddressingNamespace is the WS-Addressing 1.0 namespace used for the adr prefix.
const AddressingNamespace = "http://www.w3.org/2005/08/addressing"

// Namespace prefixes used in header and body field names.
const (
	PrefixAddressing = "adr"
	PrefixOperation  = "n0"
	PrefixCommon     = "n1"
)

// Endpoints holds the process-wide service locations. Set once at startup.
type Endpoints struct {
	// WSDL is the base URL SOAP services are hosted under.
	WSDL string
	// Namespaces is the base URI every capability namespace is composed from.
	Namespaces string
}

// Capability identifies a group of remote operations.
type Capability struct {
	// Namespace is appended to Endpoints.Namespaces.
	Namespace string
	// Service is appended to Endpoints.WSDL to address the capability's service.
	Service string
}

var (
	TokenManagement = Capability{
		Namespace: "webservices/rkd/TokenManagement_1",
		Service:   "TokenManagement/TokenManagement.svc/Anonymous",
	}
	Fundamentals = Capability{
		Namespace: "webservices/rkd/Fundamentals_1",
		Service:   "Fundamentals/Fundamentals.svc",
	}
	Search = Capability{
		Namespace: "webservices/rkd/Search_1",
		Service:   "Search/Search.svc",
	}
	Common = Capability{
		Namespace: "webservices/rkd/Common_1",
	}
)

// Namespace returns the fully qualified namespace URI for c.
func (e Endpoints) Namespace(c Capability) string {
	return joinURI(e.Namespaces, c.Namespace)
}

// Endpoint returns the service address for c.
func (e Endpoints) Endpoint(c Capability) string {
	return joinURI(e.WSDL, c.Service)
}

// Operation names a versioned remote operation, e.g. CreateServiceToken version 1.
type Operation struct {
	Name    string
	Version int
}

// CreateServiceToken is the token acquisition operation.
var CreateServiceToken = Operation{Name: "CreateServiceToken", Version: 1}

// Action is the operation's management path, appended to the namespace to
// form the WS-Addressing Action.
func (o Operation) Action() string {
	return o.Name + "_" + strconv.Itoa(o.Version)
}

// RequestElement is the body element wrapping the request fields.
func (o Operation) RequestElement() string {
	return o.Name + "_Request_" + strconv.Itoa(o.Version)
}

// ResponseElement is the body element wrapping the result.
func (o Operation) ResponseElement() string {
	return o.Name + "_Response_" + strconv.Itoa(o.Version)
}

// ResultKey locates the result node in a decoded response.
func (o Operation) ResultKey() string {
	return SnakeCase(o.ResponseElement())
}

func (o Operation) String() string {
	return o.Action()
}

func joinURI(base, suffix string) string {
	if suffix == "" {
		return strings.TrimRight(base, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(suffix, "/")
}
