package presign

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"telemetry-viewer/src/helpers"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/google/uuid"
)

const (
	// Service name AWS IoT expects in the credential scope of websocket URLs.
	iotService = "iotdevicegateway"

	// SHA-256 of an empty payload.
	emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// CredentialsFunc returns the credentials used to sign one URL.
type CredentialsFunc func() (aws.Credentials, error)

// -----------------------------------------------------------------------------
// Signer presigns AWS IoT MQTT-over-websocket URLs in process.
// -----------------------------------------------------------------------------

type Signer struct {
	Region      string
	IoTEndpoint string
	Expires     time.Duration
	Prefix      string
	Credentials CredentialsFunc
	Logger      *logger.Logger

	signer *v4.Signer
	now    func() time.Time
	newID  func() string
}

// -----------------------------------------------------------------------------

func NewSigner(cfg *models.MConfig, log *logger.Logger) *Signer {
	if log == nil {
		log = logger.NewLogger(cfg, "Presign")
	}
	expires := time.Duration(cfg.Presign.ExpiresSeconds) * time.Second
	if expires <= 0 {
		expires = utils.DefaultExpiresSeconds * time.Second
	}
	prefix := cfg.Presign.ClientIDPrefix
	if prefix == "" {
		prefix = utils.DefaultClientIDPrefix
	}
	return &Signer{
		Region:      cfg.Presign.Region,
		IoTEndpoint: cfg.Presign.IoTEndpoint,
		Expires:     expires,
		Prefix:      prefix,
		Credentials: EnvCredentials,
		Logger:      log,
		signer:      v4.NewSigner(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// -----------------------------------------------------------------------------

// EnvCredentials reads AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and the
// optional AWS_SESSION_TOKEN.
func EnvCredentials() (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return creds, nil
}

// -----------------------------------------------------------------------------

// NewClientID returns prefix followed by a random UUID.
func NewClientID(prefix string) string {
	return prefix + uuid.NewString()
}

// -----------------------------------------------------------------------------

// Presign signs GET wss://<endpoint>/mqtt for clientID. An empty clientID
// gets a generated one.
func (s *Signer) Presign(ctx context.Context, clientID string) (models.MPresignedURL, error) {
	if clientID == "" {
		clientID = s.Prefix + s.newID()
	}
	if s.Region == "" || s.IoTEndpoint == "" {
		return models.MPresignedURL{}, helpers.NewPresignError("region and IoT endpoint must be configured", nil)
	}

	creds, err := s.Credentials()
	if err != nil {
		return models.MPresignedURL{}, helpers.NewPresignError("credentials unavailable", err)
	}

	// 1. Unsigned request; the signer adds the X-Amz-* auth parameters
	query := url.Values{}
	query.Set("X-Amz-Client-Id", clientID)
	query.Set("X-Amz-Expires", strconv.FormatInt(int64(s.Expires/time.Second), 10))

	reqURL := url.URL{
		Scheme:   "https",
		Host:     s.IoTEndpoint,
		Path:     "/mqtt",
		RawQuery: query.Encode(),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return models.MPresignedURL{}, helpers.NewPresignError("failed to build request", err)
	}

	// 2. Sign. A session token goes into the query before signing, so it is
	// covered by the signature.
	signedAt := s.now().UTC()
	signed, _, err := s.signer.PresignHTTP(ctx, creds, req, emptyPayloadHash, iotService, s.Region, signedAt)
	if err != nil {
		return models.MPresignedURL{}, helpers.NewPresignError("signing failed", err)
	}

	// 3. Same URL over websocket
	wsURL, err := url.Parse(signed)
	if err != nil {
		return models.MPresignedURL{}, helpers.NewPresignError("signer returned an invalid URL", err)
	}
	wsURL.Scheme = "wss"

	s.Logger.Debug("Presigned URL for client %s (expires in %s)", clientID, s.Expires)

	return models.MPresignedURL{
		URL:       wsURL.String(),
		ClientID:  clientID,
		ExpiresAt: signedAt.Add(s.Expires),
	}, nil
}
