package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/errdefs"
)

// DefaultTimeout bounds one API exchange, sized for large archive uploads.
const DefaultTimeout = 300 * time.Second

// Client talks to one registry endpoint.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// New returns a Client for the registry at api, authenticating with token
// when it is non-empty.
func New(api, token string) (*Client, error) {
	base, err := url.Parse(api)
	if err != nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "parse registry url %q: %v", api, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "registry url %q needs a scheme and host", api)
	}
	return &Client{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: DefaultTimeout},
	}, nil
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	parts := append([]string{strings.TrimSuffix(u.Path, "/"), "api", "v1"}, segments...)
	u.Path = strings.Join(parts, "/")
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrInvalidParameter, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do executes the request and turns non-2xx statuses into category errors.
// The response body is only returned for successful exchanges.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrUnavailable, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, statusError(resp)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = resp.Status
	}
	var base error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		base = errdefs.ErrInvalidParameter
	case http.StatusUnauthorized:
		base = errdefs.ErrUnauthorized
	case http.StatusForbidden:
		base = errdefs.ErrForbidden
	case http.StatusNotFound:
		base = errdefs.ErrNotFound
	case http.StatusConflict:
		base = errdefs.ErrConflict
	default:
		base = errdefs.ErrSystem
	}
	return errdefs.Newf(base, "%s", message)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errdefs.Newf(errdefs.ErrSystem, "decode response from %s: %v", rawURL, err)
	}
	return nil
}

// ServerVersion returns the registry's own version string.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("version"), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errdefs.NewE(errdefs.ErrSystem, err)
	}
	return strings.TrimSpace(string(body)), nil
}

// GetVersions lists the non-yanked versions of a package. An unknown name
// yields an empty list.
func (c *Client) GetVersions(ctx context.Context, name string) ([]database.Version, error) {
	var versions []database.Version
	if err := c.getJSON(ctx, c.endpoint("package", name), &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// ResolveVersion returns the latest non-yanked version satisfying the
// requirement expression.
func (c *Client) ResolveVersion(ctx context.Context, name, requirement string) (database.Version, error) {
	rawURL := c.endpoint("package", name) + "?version_requirement=" + url.QueryEscape(requirement)
	var row database.Version
	if err := c.getJSON(ctx, rawURL, &row); err != nil {
		return database.Version{}, err
	}
	return row, nil
}

// Upload streams a framed upload body to the registry.
func (c *Client) Upload(ctx context.Context, body io.Reader) error {
	req, err := c.newRequest(ctx, http.MethodPut, c.endpoint("package"), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Download streams the archive of a version into w and returns the number
// of bytes written.
func (c *Client) Download(ctx context.Context, name, version string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("package", name, version, "download"), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return n, nil
}

// Yank sets the yank flag of a version.
func (c *Client) Yank(ctx context.Context, name, version string, yanked bool) (database.Version, error) {
	rawURL := c.endpoint("package", name, version, "yank", fmt.Sprintf("%t", yanked))
	req, err := c.newRequest(ctx, http.MethodPut, rawURL, nil)
	if err != nil {
		return database.Version{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return database.Version{}, err
	}
	defer resp.Body.Close()
	var row database.Version
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return database.Version{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return row, nil
}

// ListOwners lists the owners of a package.
func (c *Client) ListOwners(ctx context.Context, name string) ([]database.Owner, error) {
	var owners []database.Owner
	if err := c.getJSON(ctx, c.endpoint("package", name, "owner"), &owners); err != nil {
		return nil, err
	}
	return owners, nil
}

// AddOwner grants ownership of a package to an email address.
func (c *Client) AddOwner(ctx context.Context, name, email string) (database.Owner, error) {
	rawURL := c.endpoint("package", name, "owner") + "?email=" + url.QueryEscape(email)
	req, err := c.newRequest(ctx, http.MethodPost, rawURL, nil)
	if err != nil {
		return database.Owner{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return database.Owner{}, err
	}
	defer resp.Body.Close()
	var owner database.Owner
	if err := json.NewDecoder(resp.Body).Decode(&owner); err != nil {
		return database.Owner{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return owner, nil
}

// RemoveOwner revokes ownership of a package from an email address.
func (c *Client) RemoveOwner(ctx context.Context, name, email string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.endpoint("package", name, "owner", url.PathEscape(email)), nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// CreateToken mints a new API token under the authenticated user. The
// returned row is the only place the bearer string appears.
func (c *Client) CreateToken(ctx context.Context, name string) (database.ApiToken, error) {
	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return database.ApiToken{}, errdefs.NewE(errdefs.ErrInvalidParameter, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("token"), bytes.NewReader(payload))
	if err != nil {
		return database.ApiToken{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return database.ApiToken{}, err
	}
	defer resp.Body.Close()
	var row database.ApiToken
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return database.ApiToken{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return row, nil
}

// ListTokens lists the live tokens of the authenticated user.
func (c *Client) ListTokens(ctx context.Context) ([]database.ApiToken, error) {
	var rows []database.ApiToken
	if err := c.getJSON(ctx, c.endpoint("token"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
