package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/weiawesome/thumbnail-service/internal/domain"
)

// ErrRouteNotFound means no callback route is configured for a bucket.
var ErrRouteNotFound = errors.New("no callback route for bucket")

// Route addresses the callback API for one source bucket.
type Route struct {
	Host   string
	Bucket string // bucket identifier known to the API
	Secret string
}

// Callback posts a form describing each new thumbnail to the API configured
// for its source bucket.
type Callback struct {
	routes     map[string]Route
	path       string
	httpClient *http.Client
}

// NewCallback creates a Callback. routes is copied; it is read-only afterwards.
func NewCallback(routes map[string]Route, path string, timeout time.Duration) *Callback {
	rs := make(map[string]Route, len(routes))
	for bucket, r := range routes {
		rs[strings.ToLower(bucket)] = r
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return &Callback{
		routes: rs,
		path:   path,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Lookup returns the route for a source bucket. Bucket names are matched
// case-insensitively since config keys arrive lower-cased.
func (c *Callback) Lookup(bucket string) (Route, error) {
	r, ok := c.routes[strings.ToLower(bucket)]
	if !ok {
		return Route{}, fmt.Errorf("%w %q", ErrRouteNotFound, bucket)
	}
	return r, nil
}

// Form builds the request body. file[...] fields use the bracket notation
// form decoders on the API side expand into a nested object.
func Form(route Route, ev *domain.ThumbnailCreated) url.Values {
	f := url.Values{}
	f.Set("bucket", route.Bucket)
	f.Set("secret", route.Secret)
	f.Set("fileId", ev.FileID)
	f.Set("key", ev.Thumbnail.Key)
	f.Set("file[name]", ev.Thumbnail.Name)
	f.Set("file[size]", strconv.FormatInt(ev.Thumbnail.Size, 10))
	f.Set("file[contentType]", ev.Thumbnail.ContentType)
	f.Set("file[width]", strconv.Itoa(ev.Thumbnail.Width))
	f.Set("file[height]", strconv.Itoa(ev.Thumbnail.Height))
	return f
}

// Notify posts the thumbnail to the source bucket's API. Non-2xx responses
// are errors.
func (c *Callback) Notify(ctx context.Context, ev *domain.ThumbnailCreated) error {
	route, err := c.Lookup(ev.Source.Bucket)
	if err != nil {
		return err
	}

	endpoint := strings.TrimSuffix(route.Host, "/") + c.path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(Form(route, ev).Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post callback: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
