package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sensei-backoffice/internal/audit"
	"sensei-backoffice/internal/messaging/evolution"
	"sensei-backoffice/internal/validation"
)

const apiPrefix = "/api/v1/whatsapp/"

// InstanceManager is the gateway surface used to pair and inspect instances.
type InstanceManager interface {
	CreateInstance(ctx context.Context, name string) (evolution.QRCode, error)
	ConnectInstance(ctx context.Context, name string) (evolution.QRCode, error)
	FetchInstances(ctx context.Context) ([]evolution.Instance, error)
	ConnectionState(ctx context.Context, name string) (evolution.ConnectionState, error)
	DeleteInstance(ctx context.Context, name string) error
	SendText(ctx context.Context, instance, number, text string) (evolution.SendResult, error)
}

// WhatsAppHandler manages gateway instances under /api/v1/whatsapp.
type WhatsAppHandler struct {
	gateway     InstanceManager
	instance    string
	countryCode string
	auditLogger audit.Logger
}

// HandlerOption configures a WhatsAppHandler.
type HandlerOption func(*WhatsAppHandler)

// WithDefaultInstance names the instance used when a request omits one.
func WithDefaultInstance(name string) HandlerOption {
	return func(h *WhatsAppHandler) {
		if name != "" {
			h.instance = name
		}
	}
}

// WithCountryCode sets the prefix for numbers without one.
func WithCountryCode(code string) HandlerOption {
	return func(h *WhatsAppHandler) { h.countryCode = code }
}

// WithAuditLogger records instance changes and test messages.
func WithAuditLogger(logger audit.Logger) HandlerOption {
	return func(h *WhatsAppHandler) { h.auditLogger = logger }
}

// NewWhatsAppHandler constructs a handler. A nil gateway answers 503.
func NewWhatsAppHandler(gateway InstanceManager, opts ...HandlerOption) *WhatsAppHandler {
	h := &WhatsAppHandler{
		gateway:     gateway,
		instance:    evolution.DefaultInstance,
		countryCode: evolution.DefaultCountryCode,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type createInstanceRequest struct {
	Name string `json:"name" validate:"omitempty,max=64,excludesall=/?#"`
}

type testMessageRequest struct {
	Number string `json:"number" validate:"required,notblank"`
	Text   string `json:"text" validate:"required,notblank,max=4096"`
}

// ServeHTTP routes WhatsApp requests.
func (h *WhatsAppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, apiPrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if h.gateway == nil {
		http.Error(w, "whatsapp gateway not configured", http.StatusServiceUnavailable)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix), "/"), "/")
	method := r.Method

	switch {
	case len(parts) == 1 && parts[0] == "instances" && method == http.MethodGet:
		h.handleList(w, r)
		return
	case len(parts) == 1 && parts[0] == "instances" && method == http.MethodPost:
		h.handleCreate(w, r)
		return
	case len(parts) == 1 && parts[0] == "messages" && method == http.MethodPost:
		h.handleTestMessage(w, r)
		return
	case len(parts) == 2 && parts[0] == "instances" && method == http.MethodDelete:
		h.handleDelete(w, r, parts[1])
		return
	case len(parts) == 3 && parts[0] == "instances" && method == http.MethodGet:
		switch parts[2] {
		case "connect":
			h.handleConnect(w, r, parts[1])
			return
		case "state":
			h.handleState(w, r, parts[1])
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *WhatsAppHandler) handleList(w http.ResponseWriter, r *http.Request) {
	instances, err := h.gateway.FetchInstances(r.Context())
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	if instances == nil {
		instances = []evolution.Instance{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": instances, "default": h.instance})
}

func (h *WhatsAppHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createInstanceRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	if err := validation.Struct(req); err != nil {
		respondGatewayError(w, err)
		return
	}
	name := req.Name
	if name == "" {
		name = h.instance
	}
	qr, err := h.gateway.CreateInstance(r.Context(), name)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"instance": name, "qrcode": qr})
	audit.FromRequest(h.auditLogger, r, "whatsapp.instance.create", "whatsapp_instance", name, nil)
}

func (h *WhatsAppHandler) handleConnect(w http.ResponseWriter, r *http.Request, name string) {
	qr, err := h.gateway.ConnectInstance(r.Context(), name)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instance": name, "qrcode": qr})
}

func (h *WhatsAppHandler) handleState(w http.ResponseWriter, r *http.Request, name string) {
	state, err := h.gateway.ConnectionState(r.Context(), name)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instance": name, "state": state.State, "open": state.Open()})
}

func (h *WhatsAppHandler) handleDelete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.gateway.DeleteInstance(r.Context(), name); err != nil {
		respondGatewayError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	audit.FromRequest(h.auditLogger, r, "whatsapp.instance.delete", "whatsapp_instance", name, nil)
}

func (h *WhatsAppHandler) handleTestMessage(w http.ResponseWriter, r *http.Request) {
	var req testMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		respondGatewayError(w, err)
		return
	}
	number := evolution.NormalizePhone(req.Number, h.countryCode)
	if number == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": map[string]string{"number": "number must contain digits"}})
		return
	}
	res, err := h.gateway.SendText(r.Context(), h.instance, number, req.Text)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
	audit.FromRequest(h.auditLogger, r, "whatsapp.message.test", "whatsapp_instance", h.instance, map[string]any{
		"number": number,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondGatewayError(w http.ResponseWriter, err error) {
	if fields := validation.Fields(err); fields != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}
	if errors.Is(err, evolution.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, "gateway error: "+err.Error(), http.StatusBadGateway)
}
