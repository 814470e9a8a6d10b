package orirando

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/riskibarqy/rando-league/internal/platform/resilience"
	"github.com/riskibarqy/rando-league/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://orirando.com"
	generatorPath  = "/generator/json"
	maxBodyBytes   = 4 << 20
)

var (
	ErrSeedRequestRejected = crerr.New("seed generator rejected the request")
	ErrSeedServerFailure   = crerr.New("seed generator server failure")
	errMalformedResponse   = crerr.New("seed generator returned a malformed response")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.Group[[]byte]
}

func NewClient(cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		raw = defaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid seed generator base url %q", raw)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		logger:     logger.Named("orirando"),
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}, nil
}

type generatorResponse struct {
	Players []struct {
		Seed       string `json:"seed"`
		SpoilerURL string `json:"spoiler_url"`
	} `json:"players"`
	MapURL     string `json:"map_url"`
	HistoryURL string `json:"history_url"`
}

// GenerateSeed requests one seed for opts. Options must already be defaulted
// and validated.
func (c *Client) GenerateSeed(ctx context.Context, opts seed.Options) (seed.Artifact, error) {
	query := seed.BuildQuery(opts).Encode()
	fullURL := c.baseURL.String() + generatorPath + "?" + query

	raw, err, shared := c.flight.Do(query, func() ([]byte, error) {
		var body []byte
		execErr := c.breaker.Execute(func() error {
			var reqErr error
			body, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, isCircuitFailure)
		return body, execErr
	})
	if err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "seed generator circuit breaker rejected request", "state", c.breaker.State())
			return seed.Artifact{}, fmt.Errorf("%w: seed generator is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		return seed.Artifact{}, err
	}
	if shared {
		c.logger.DebugContext(ctx, "seed generator response shared", "seed_name", opts.SeedName)
	}

	var resp generatorResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return seed.Artifact{}, crerr.Wrapf(errMalformedResponse, "decode: %v", err)
	}
	return c.toArtifact(opts.SeedName, resp)
}

func (c *Client) toArtifact(seedName string, resp generatorResponse) (seed.Artifact, error) {
	if len(resp.Players) == 0 || resp.Players[0].Seed == "" {
		return seed.Artifact{}, crerr.Wrap(errMalformedResponse, "no player seed in response")
	}
	player := resp.Players[0]
	header, _, _ := strings.Cut(player.Seed, "\n")

	return seed.Artifact{
		SeedName:   seedName,
		Header:     strings.TrimRight(header, "\r"),
		SpoilerURL: c.absoluteURL(player.SpoilerURL),
		MapURL:     c.absoluteURL(resp.MapURL),
		HistoryURL: c.absoluteURL(resp.HistoryURL),
		File:       []byte(player.Seed),
	}, nil
}

func (c *Client) absoluteURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return c.baseURL.String() + ref
	}
	return c.baseURL.ResolveReference(parsed).String()
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	c.logger.InfoContext(ctx, "outgoing seed request", "url", fullURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: send seed request: %v", usecase.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read seed response: %v", usecase.ErrDependencyUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, crerr.Wrapf(ErrSeedRequestRejected, "status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	default:
		c.logger.WarnContext(ctx, "seed generator request failed", "status", resp.StatusCode)
		return nil, crerr.Wrapf(ErrSeedServerFailure, "status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}
}

// Rejected requests are caller mistakes and do not trip the breaker.
func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	if crerr.Is(err, ErrSeedRequestRejected) {
		return false
	}
	return !stderrors.Is(err, context.Canceled)
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "..."
}
