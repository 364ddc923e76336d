package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
)

// HTTPTransport submits observations to the REST API as multipart form
// requests. Timeouts are left to the http.Client defaults.
type HTTPTransport struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTP creates a transport for the given server base URL.
func NewHTTP(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// WithToken attaches a bearer token to every submission.
func (t *HTTPTransport) WithToken(token string) *HTTPTransport {
	t.token = token
	return t
}

// WithClient overrides the underlying HTTP client (useful for tests).
func (t *HTTPTransport) WithClient(client *http.Client) *HTTPTransport {
	if client != nil {
		t.client = client
	}
	return t
}

type submitResponse struct {
	Success     bool   `json:"success"`
	ID          string `json:"id"`
	Message     string `json:"message"`
	Observation struct {
		ID       string `json:"id"`
		ImageURL string `json:"imageUrl"`
	} `json:"observation"`
}

func (t *HTTPTransport) Submit(ctx context.Context, payload Payload) (Result, error) {
	body, contentType, err := t.encode(payload)
	if err != nil {
		return Result{}, &Error{Message: "failed to encode payload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/observations", body)
	if err != nil {
		return Result{}, &Error{Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", contentType)
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Result{}, &Error{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(data))
		var parsed submitResponse
		if json.Unmarshal(data, &parsed) == nil && parsed.Message != "" {
			message = parsed.Message
		}
		return Result{}, &Error{Status: resp.StatusCode, Message: message}
	}

	var parsed submitResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, &Error{Message: "malformed server response", Cause: err}
	}
	id := parsed.ID
	if id == "" {
		id = parsed.Observation.ID
	}
	return Result{ID: id, ImageURL: parsed.Observation.ImageURL}, nil
}

func (t *HTTPTransport) encode(payload Payload) (io.Reader, string, error) {
	file, err := os.Open(payload.MediaPath)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="`+payload.Filename+`"`)
	header.Set("Content-Type", payload.MimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}

	if payload.Lat != nil {
		_ = writer.WriteField("lat", strconv.FormatFloat(*payload.Lat, 'f', -1, 64))
	}
	if payload.Lng != nil {
		_ = writer.WriteField("lng", strconv.FormatFloat(*payload.Lng, 'f', -1, 64))
	}
	if payload.LocationName != nil {
		_ = writer.WriteField("locationName", *payload.LocationName)
	}
	if payload.Legend != nil {
		_ = writer.WriteField("legend", *payload.Legend)
	}
	if payload.UserID != "" {
		_ = writer.WriteField("userId", payload.UserID)
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
