package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for outbound HTTP requests.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a single GET request to the specified URL with parameters.
	// Returns the status code, the response body, or a transport error.
	Get(ctx context.Context, url string, params map[string]string) (int, []byte, error)
}
