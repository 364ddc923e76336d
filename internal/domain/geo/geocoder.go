package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// GeocoderClient resolves coordinates via a nominatim-style reverse
// geocoding endpoint.
type GeocoderClient struct {
	baseURL string
	client  *http.Client
}

// NewGeocoderClient creates a client for the given endpoint base URL.
func NewGeocoderClient(baseURL string) *GeocoderClient {
	return &GeocoderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// WithClient overrides the underlying HTTP client (useful for tests).
func (g *GeocoderClient) WithClient(client *http.Client) *GeocoderClient {
	if client != nil {
		g.client = client
	}
	return g
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates into a place name. Any failure is
// reported as ErrUnavailable.
func (g *GeocoderClient) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", ErrUnavailable
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", ErrUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", ErrUnavailable
	}

	var parsed reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", ErrUnavailable
	}

	name := parsed.Name
	city := parsed.Address.City
	if city == "" {
		city = parsed.Address.Town
	}
	if city == "" {
		city = parsed.Address.Village
	}
	switch {
	case name != "" && city != "":
		return fmt.Sprintf("%s, %s", name, city), nil
	case name != "":
		return name, nil
	case parsed.DisplayName != "":
		return parsed.DisplayName, nil
	default:
		return "", ErrUnavailable
	}
}

// WithGeocoder layers network reverse geocoding on top of a base
// provider. Position and permission handling are delegated untouched.
func WithGeocoder(base Provider, client *GeocoderClient) Provider {
	return &geocodingProvider{base: base, client: client}
}

type geocodingProvider struct {
	base   Provider
	client *GeocoderClient
}

func (p *geocodingProvider) RequestPermission(ctx context.Context) (bool, error) {
	return p.base.RequestPermission(ctx)
}

func (p *geocodingProvider) CurrentPosition(ctx context.Context) (Position, error) {
	return p.base.CurrentPosition(ctx)
}

func (p *geocodingProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	name, err := p.client.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		// fall back to whatever the base provider knows
		return p.base.ReverseGeocode(ctx, lat, lng)
	}
	return name, nil
}
