package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultInstance is the WhatsApp instance used when none is configured.
const DefaultInstance = "sensei-primary"

const sendTypingDelayMS = 1200

// ErrNotFound is returned when the gateway answers 404.
var ErrNotFound = errors.New("evolution: not found")

// Client is a minimal Evolution API (WhatsApp gateway) client.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient constructs a gateway client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("evolution: empty base url")
	}
	if apiKey == "" {
		return nil, errors.New("evolution: empty api key")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Instance is a WhatsApp session hosted by the gateway.
type Instance struct {
	Name   string `json:"instanceName"`
	Status string `json:"status,omitempty"`
}

// QRCode is the pairing payload returned when connecting an instance.
type QRCode struct {
	PairingCode string `json:"pairingCode,omitempty"`
	Code        string `json:"code,omitempty"`
	Base64      string `json:"base64,omitempty"`
}

// ConnectionState reports whether an instance is paired.
type ConnectionState struct {
	Instance string `json:"instanceName"`
	State    string `json:"state"`
}

// Open reports whether the instance can send messages.
func (s ConnectionState) Open() bool { return s.State == "open" }

// SendResult is the gateway acknowledgement of a sent message.
type SendResult struct {
	MessageID string `json:"messageId,omitempty"`
	Status    string `json:"status,omitempty"`
}

// CreateInstance registers a new Baileys-backed instance and returns its QR
// code when the gateway provides one.
func (c *Client) CreateInstance(ctx context.Context, name string) (QRCode, error) {
	if name == "" {
		return QRCode{}, errors.New("evolution: empty instance name")
	}
	body := map[string]any{
		"instanceName": name,
		"qrcode":       true,
		"integration":  "WHATSAPP-BAILEYS",
	}
	var resp struct {
		QRCode QRCode `json:"qrcode"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/instance/create", body, &resp); err != nil {
		return QRCode{}, err
	}
	return resp.QRCode, nil
}

// ConnectInstance asks the gateway for a fresh pairing QR code.
func (c *Client) ConnectInstance(ctx context.Context, name string) (QRCode, error) {
	if name == "" {
		return QRCode{}, errors.New("evolution: empty instance name")
	}
	var resp QRCode
	if err := c.doJSON(ctx, http.MethodGet, "/instance/connect/"+url.PathEscape(name), nil, &resp); err != nil {
		return QRCode{}, err
	}
	return resp, nil
}

// FetchInstances lists every instance known to the gateway.
func (c *Client) FetchInstances(ctx context.Context) ([]Instance, error) {
	var raw []instanceItem
	if err := c.doJSON(ctx, http.MethodGet, "/instance/fetchInstances", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]Instance, 0, len(raw))
	for _, item := range raw {
		out = append(out, item.instance())
	}
	return out, nil
}

// ConnectionState reads the pairing state of an instance.
func (c *Client) ConnectionState(ctx context.Context, name string) (ConnectionState, error) {
	if name == "" {
		return ConnectionState{}, errors.New("evolution: empty instance name")
	}
	var resp struct {
		Instance ConnectionState `json:"instance"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/instance/connectionState/"+url.PathEscape(name), nil, &resp); err != nil {
		return ConnectionState{}, err
	}
	if resp.Instance.Instance == "" {
		resp.Instance.Instance = name
	}
	return resp.Instance, nil
}

// DeleteInstance removes an instance from the gateway.
func (c *Client) DeleteInstance(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("evolution: empty instance name")
	}
	return c.doJSON(ctx, http.MethodDelete, "/instance/delete/"+url.PathEscape(name), nil, nil)
}

// SendText delivers a plain text message. number must already be normalized.
func (c *Client) SendText(ctx context.Context, instance, number, text string) (SendResult, error) {
	if instance == "" || number == "" {
		return SendResult{}, errors.New("evolution: invalid send args")
	}
	body := map[string]any{
		"number":      number,
		"text":        text,
		"delay":       sendTypingDelayMS,
		"linkPreview": true,
	}
	var resp struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/message/sendText/"+url.PathEscape(instance), body, &resp); err != nil {
		return SendResult{}, err
	}
	return SendResult{MessageID: resp.Key.ID, Status: resp.Status}, nil
}

// instanceItem accepts both the flat (v2) and nested (v1) list shapes.
type instanceItem struct {
	Name             string `json:"name"`
	ConnectionStatus string `json:"connectionStatus"`
	Instance         *struct {
		InstanceName string `json:"instanceName"`
		Status       string `json:"status"`
	} `json:"instance"`
}

func (i instanceItem) instance() Instance {
	if i.Instance != nil {
		return Instance{Name: i.Instance.InstanceName, Status: i.Instance.Status}
	}
	return Instance{Name: i.Name, Status: i.ConnectionStatus}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("evolution: http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
