package presign

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/interfaces"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"
)

// -----------------------------------------------------------------------------
// Client asks a presign endpoint (GET <endpoint>?clientId=...) for a URL.
// It makes a single attempt per call.
// -----------------------------------------------------------------------------

type Client struct {
	Endpoint string
	Prefix   string
	Expires  time.Duration
	Network  interfaces.INetworkManager
	Logger   *logger.Logger

	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewClient(cfg *models.MConfig, network interfaces.INetworkManager, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewLogger(cfg, "PresignClient")
	}
	prefix := cfg.Presign.ClientIDPrefix
	if prefix == "" {
		prefix = utils.DefaultClientIDPrefix
	}
	return &Client{
		Endpoint: cfg.Presign.Endpoint,
		Prefix:   prefix,
		Expires:  time.Duration(cfg.Presign.ExpiresSeconds) * time.Second,
		Network:  network,
		Logger:   log,
		now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

func (c *Client) Presign(ctx context.Context, clientID string) (models.MPresignedURL, error) {
	if clientID == "" {
		clientID = NewClientID(c.Prefix)
	}

	status, body, err := c.Network.Get(ctx, c.Endpoint, map[string]string{"clientId": clientID})
	if err != nil {
		return models.MPresignedURL{}, helpers.NewPresignError("presign request failed", err)
	}

	var resp models.MPresignResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.MPresignedURL{}, helpers.NewPresignError(fmt.Sprintf("unreadable presign response (status %d)", status), err)
	}

	if status != http.StatusOK {
		msg := resp.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return models.MPresignedURL{}, helpers.NewPresignError(fmt.Sprintf("presign endpoint returned %d: %s", status, msg), nil)
	}
	if resp.Error != "" {
		return models.MPresignedURL{}, helpers.NewPresignError(resp.Error, nil)
	}
	if resp.URL == "" {
		return models.MPresignedURL{}, helpers.NewPresignError("presign response carries no url", nil)
	}

	u, err := url.Parse(resp.URL)
	if err != nil || (u.Scheme != "wss" && u.Scheme != "ws") || u.Host == "" {
		return models.MPresignedURL{}, helpers.NewPresignError("presign response url is not a websocket url", err)
	}

	if resp.ClientID != "" {
		clientID = resp.ClientID
	}

	presigned := models.MPresignedURL{URL: resp.URL, ClientID: clientID}
	if c.Expires > 0 {
		presigned.ExpiresAt = c.now().Add(c.Expires)
	}
	return presigned, nil
}

// -----------------------------------------------------------------------------

// NewAuthority picks the authority for cfg.Presign.Mode.
func NewAuthority(cfg *models.MConfig, network interfaces.INetworkManager, log *logger.Logger) interfaces.IPresignAuthority {
	if cfg.Presign.Mode == "remote" {
		return NewClient(cfg, network, log)
	}
	return NewSigner(cfg, log)
}
