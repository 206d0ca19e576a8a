// Package directory lists the services a stream can be opened for.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crimson-sun/logstream/internal/connector/auth"
	"github.com/crimson-sun/logstream/internal/connector/httpclient"
	"github.com/crimson-sun/logstream/internal/model"
)

// ServicesPath is the backend endpoint returning the service list.
const ServicesPath = "/api/services"

// ErrNoServices is returned when the directory is reachable but empty.
var ErrNoServices = errors.New("directory: no services registered")

// ErrNotFound is returned by Find when no service matches.
var ErrNotFound = errors.New("directory: service not found")

// Client queries the service directory.
type Client struct {
	apiURL string
	creds  auth.TokenSource
	opts   []httpclient.Option
}

// New creates a Client. creds supplies the bearer credential per request.
func New(apiURL string, creds auth.TokenSource, opts ...httpclient.Option) *Client {
	return &Client{apiURL: apiURL, creds: creds, opts: opts}
}

// List returns the selectable services.
func (c *Client) List(ctx context.Context) ([]model.Service, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	var services []model.Service
	if err := httpclient.New(c.apiURL, token, c.opts...).GetJSON(ctx, ServicesPath, nil, &services); err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	if len(services) == 0 {
		return nil, ErrNoServices
	}
	return services, nil
}

// Find resolves a service by exact id, then by case-insensitive name.
func Find(services []model.Service, idOrName string) (model.Service, error) {
	for _, s := range services {
		if s.ID == idOrName {
			return s, nil
		}
	}
	for _, s := range services {
		if strings.EqualFold(s.Name, idOrName) {
			return s, nil
		}
	}
	return model.Service{}, fmt.Errorf("%w: %q", ErrNotFound, idOrName)
}
