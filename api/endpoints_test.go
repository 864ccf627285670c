package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEndpointResolve(t *testing.T) {
	path, err := EndpointTxOutspend.Resolve("abcd", "1")
	require.NoError(t, err)
	require.Equal(t, "/tx/abcd/outspend/1", path)

	path, err = EndpointRecommendedFees.Resolve()
	require.NoError(t, err)
	require.Equal(t, "/v1/fees/recommended", path)

	// values are escaped, not validated
	path, err = EndpointAddress.Resolve("a/b c")
	require.NoError(t, err)
	require.Equal(t, "/address/a%2Fb%20c", path)
}

func TestEndpointResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		ep     Endpoint
		params []string
		err    error
		param  string
	}{
		{"missing", EndpointTx, nil, ErrMissingPathParam, "txid"},
		{"blank", EndpointTx, []string{" "}, ErrMissingPathParam, "txid"},
		{"second missing", EndpointTxOutspend, []string{"abcd"}, ErrMissingPathParam, "vout"},
		{"extra", EndpointTipHeight, []string{"1"}, ErrExtraPathParam, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.ep.Resolve(tt.params...)
			require.ErrorIs(t, err, tt.err)
			var pathErr *PathError
			require.ErrorAs(t, err, &pathErr)
			require.Equal(t, tt.ep.Name, pathErr.Endpoint)
			require.Equal(t, tt.param, pathErr.Param)
		})
	}
}

func TestEndpointCatalogue(t *testing.T) {
	names := make(map[string]bool)
	routes := make(map[string]bool)
	for _, ep := range Endpoints() {
		require.True(t, ep.Method.Valid(), "endpoint %s", ep.Name)
		require.NotEmpty(t, ep.Name)
		require.False(t, names[ep.Name], "duplicate name %s", ep.Name)
		names[ep.Name] = true

		route := string(ep.Method) + " " + ep.Path
		require.False(t, routes[route], "duplicate route %s", route)
		routes[route] = true

		// every template resolves once each placeholder has a value
		params := ep.Params()
		values := make([]string, len(params))
		for i := range values {
			values[i] = "x"
		}
		_, err := ep.Resolve(values...)
		require.NoError(t, err, "endpoint %s", ep.Name)
	}
	require.Equal(t, []string{"txid", "vout"}, EndpointTxOutspend.Params())
	require.Nil(t, EndpointMempool.Params())
}

func TestMethodValid(t *testing.T) {
	require.True(t, MethodGet.Valid())
	require.True(t, MethodPost.Valid())
	require.False(t, Method("PUT").Valid())
	require.False(t, Method("").Valid())
}
