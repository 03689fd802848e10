package rkd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CreateServiceToken_Response_1", "create_service_token_response_1"},
		{"CreateServiceTokenResponse1", "create_service_token_response1"},
		{"ApplicationID", "application_id"},
		{"n0:Token", "token"},
		{"Expiration", "expiration"},
		{"XMLReport", "xml_report"},
		{"already_snake", "already_snake"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SnakeCase(tt.in))
		})
	}
}

func TestOperationNames(t *testing.T) {
	op := CreateServiceToken
	assert.Equal(t, "CreateServiceToken_1", op.Action())
	assert.Equal(t, "CreateServiceToken_Request_1", op.RequestElement())
	assert.Equal(t, "CreateServiceToken_Response_1", op.ResponseElement())
	assert.Equal(t, "create_service_token_response_1", op.ResultKey())
}

func TestEndpointsCompose(t *testing.T) {
	e := Endpoints{
		WSDL:       "https://api.rkd.example.com/api/",
		Namespaces: "http://www.reuters.com/ns/2006/05/01",
	}
	assert.Equal(t, "http://www.reuters.com/ns/2006/05/01/webservices/rkd/TokenManagement_1", e.Namespace(TokenManagement))
	assert.Equal(t, "https://api.rkd.example.com/api/TokenManagement/TokenManagement.svc/Anonymous", e.Endpoint(TokenManagement))
	assert.Equal(t, "https://api.rkd.example.com/api", e.Endpoint(Common))
}
