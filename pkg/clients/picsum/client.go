package picsum

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mailru/easyjson"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"

	"vision_collage/pkg/config"
	"vision_collage/pkg/metrics"
	"vision_collage/pkg/models"
)

const (
	DefaultBaseURL = "https://picsum.photos"
	listPath       = "/v2/list"

	// Upper bound on a single list response body.
	maxListBytes = 4 << 20
)

// Client talks to the Picsum public image API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	reg        *metrics.Registry
}

// NewClient constructs a Picsum client. An empty baseURL means DefaultBaseURL;
// a zero timeout leaves the http.Client without one.
func NewClient(baseURL string, timeout time.Duration, reg *metrics.Registry) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid picsum base URL %q: %w", baseURL, err)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		reg:        reg,
	}, nil
}

// NewFromConfig constructs a client from app config.
func NewFromConfig(cfg config.Config, reg *metrics.Registry) (*Client, error) {
	return NewClient(cfg.Picsum.URL, cfg.Picsum.Timeout, reg)
}

// List fetches one page of image metadata in random order.
func (c *Client) List(ctx context.Context, page, limit int) (models.ImageInfoList, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d", page)
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be >= 1, got %d", limit)
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order_by", "random")

	body, err := c.get(ctx, "list", c.baseURL+listPath+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxListBytes))
	if err != nil {
		return nil, fmt.Errorf("read list response: %w", err)
	}
	var list models.ImageInfoList
	if err := easyjson.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return list, nil
}

// Download fetches and decodes the image at rawURL.
func (c *Client) Download(ctx context.Context, rawURL string) (image.Image, error) {
	if rawURL == "" {
		return nil, errors.New("empty image URL")
	}
	body, err := c.get(ctx, "download", rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	img, err := imaging.Decode(body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", rawURL, err)
	}
	return img, nil
}

func (c *Client) get(ctx context.Context, op, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.reg.Inc(ctx, "picsum_requests_total", metrics.Labels{"op": op, "status": "error"}, 1)
		return nil, fmt.Errorf("picsum %s request failed: %w", op, err)
	}

	log.Ctx(ctx).Debug().
		Str("op", op).
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("picsum request")
	c.reg.Inc(ctx, "picsum_requests_total", metrics.Labels{"op": op, "status": strconv.Itoa(resp.StatusCode)}, 1)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("picsum %s: unexpected status %s", op, resp.Status)
	}
	return resp.Body, nil
}
