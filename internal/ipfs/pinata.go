// internal/ipfs/pinata.go
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/config"
	"github.com/storymint/storymint-backend/internal/metrics"
)

// Publisher uploads JSON documents to a content-addressed network and
// returns their content hash.
type Publisher interface {
	PublishJSON(ctx context.Context, doc interface{}) (string, error)
	URI(cid string) string
	GatewayURL(cid string) string
}

// PinataClient publishes documents through Pinata's pinning API.
type PinataClient struct {
	baseURL     string
	jwt         string
	gatewayHost string
	client      *http.Client
}

type pinJSONRequest struct {
	PinataContent interface{} `json:"pinataContent"`
}

type pinJSONResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func NewPinataClient(cfg config.IPFSConfig) *PinataClient {
	return &PinataClient{
		baseURL:     cfg.PinataBaseURL,
		jwt:         cfg.PinataJWT,
		gatewayHost: cfg.GatewayHost,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// PublishJSON pins doc and returns its CID. Rate limiting and network
// failures are retried with exponential backoff; authorization and other
// client errors are permanent.
func (p *PinataClient) PublishJSON(ctx context.Context, doc interface{}) (string, error) {
	payload, err := json.Marshal(pinJSONRequest{PinataContent: doc})
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindValidation, "failed to encode document for pinning", err)
	}

	var cid string

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			p.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.jwt)

		resp, err := p.client.Do(req)
		if err != nil {
			return apperrors.Wrap(apperrors.KindNetwork, "content-addressed publish failed", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close pinata response body")
			}
		}()

		switch {
		case resp.StatusCode == http.StatusOK:
			var result pinJSONResponse
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return backoff.Permanent(apperrors.Wrap(apperrors.KindInternal, "failed to decode pinning response", err))
			}
			if result.IpfsHash == "" {
				return backoff.Permanent(apperrors.New(apperrors.KindInternal, "pinning response missing content hash"))
			}
			cid = result.IpfsHash
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			logrus.Warn("Pinata rate limited, retrying with backoff")
			return apperrors.New(apperrors.KindNetwork, "pinning service rate limited (429)")
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(apperrors.New(apperrors.KindAuthFailure,
				"pinning service rejected credentials. Please check your Pinata JWT"))
		case resp.StatusCode >= 500:
			return apperrors.Newf(apperrors.KindNetwork, "pinning service error (%d)", resp.StatusCode)
		default:
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(apperrors.Newf(apperrors.KindInternal,
				"unexpected pinning response %d: %s", resp.StatusCode, string(body)))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = time.Minute
	b.RandomizationFactor = 0.5

	started := time.Now()
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("publish failed after retries: %w", err)
	}
	metrics.ObservePublishDuration(time.Since(started).Seconds())

	return cid, nil
}

// URI returns the self-verifying ipfs:// address for a CID.
func (p *PinataClient) URI(cid string) string {
	return "ipfs://" + cid
}

// GatewayURL returns the HTTP gateway form of a CID for debugging and logs.
func (p *PinataClient) GatewayURL(cid string) string {
	return fmt.Sprintf("https://%s/ipfs/%s", p.gatewayHost, cid)
}
