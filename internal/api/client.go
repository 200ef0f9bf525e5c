package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/bajrang214/looptalk-client/internal/session"
)

const apiPrefix = "/api"

// CredentialSource is read before every authenticated request.
type CredentialSource interface {
	Credential(ctx context.Context) (session.Credential, error)
}

type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
}

func NewClient(baseURL string, httpClient *http.Client, creds CredentialSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		creds:   creds,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveImageURL turns a server-relative image path into an absolute URL.
func (c *Client) ResolveImageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.Contains(path, "://") || strings.HasPrefix(path, "blob:") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) credential(ctx context.Context, op string) (session.Credential, error) {
	if c.creds == nil {
		return session.Credential{}, &Error{Kind: ErrAuth, Op: op, Err: session.ErrUnauthenticated}
	}
	cred, err := c.creds.Credential(ctx)
	if err != nil {
		return session.Credential{}, &Error{Kind: ErrAuth, Op: op, Err: err}
	}
	return cred, nil
}

type request struct {
	op          string
	method      string
	path        string
	cred        *session.Credential
	body        io.Reader
	contentType string
}

func jsonRequest(op, method, path string, cred *session.Credential, payload any) (request, error) {
	req := request{op: op, method: method, path: path, cred: cred}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return request{}, &Error{Kind: ErrValidation, Op: op, Err: err}
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return req, nil
}

func (c *Client) send(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+apiPrefix+r.path, r.body)
	if err != nil {
		return &Error{Kind: ErrNetwork, Op: r.op, Err: err}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if r.cred != nil {
		req.Header.Set("Authorization", "Bearer "+r.cred.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: ErrNetwork, Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := ErrServer
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = ErrAuth
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Kind: kind, Op: r.op, Status: resp.StatusCode, Message: serverMessage(body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: ErrServer, Op: r.op, Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

// serverMessage extracts a human readable message from an error body. The
// server answers either with {"msg"|"message"|"error": "..."} or plain text.
func serverMessage(body []byte) string {
	var payload struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, m := range []string{payload.Msg, payload.Message, payload.Error} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(body))
}

type formField struct {
	name  string
	value string
}

func multipartBody(fields []formField, fileField string, img *Image) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if img != nil && img.Body != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileField, escapeQuotes(img.Filename)))
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, img.Body); err != nil {
			return nil, "", fmt.Errorf("copy image: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
