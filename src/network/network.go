package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"
)

// maxBodyBytes caps responses read into memory.
const maxBodyBytes = 1 << 20

type NetworkManager struct {
	Config *models.MConfig
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MConfig, log *logger.Logger) *NetworkManager {
	if log == nil {
		log = logger.NewLogger(cfg, "Network")
	}
	nm := &NetworkManager{
		Config: cfg,
		Logger: log,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) createClient() *http.Client {
	timeout := time.Duration(nm.Config.Network.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// -----------------------------------------------------------------------------

// Get performs exactly one GET request. Retrying is left to the caller.
func (nm *NetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) (int, []byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid url %q: %w", urlStr, err)
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := nm.Config.Network.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := nm.Client.Do(req)
	if err != nil {
		nm.Logger.Warning("Request to %s failed: %v", reqURL.Host, err)
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		nm.Logger.Debug("Bad status %d from %s", resp.StatusCode, reqURL.Host)
	}
	return resp.StatusCode, body, nil
}
