package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sensei-backoffice/internal/audit"
	posapp "sensei-backoffice/internal/pos/application"
	pos "sensei-backoffice/internal/pos/domain"
	"sensei-backoffice/internal/validation"
)

const apiPrefix = "/api/v1/pos/"

// POSHandler serves the catalog and checkout under /api/v1/pos.
type POSHandler struct {
	service     *posapp.Service
	auditLogger audit.Logger
}

// HandlerOption configures a POSHandler.
type HandlerOption func(*POSHandler)

// WithAuditLogger records mutating calls.
func WithAuditLogger(logger audit.Logger) HandlerOption {
	return func(h *POSHandler) { h.auditLogger = logger }
}

// NewPOSHandler constructs a handler.
func NewPOSHandler(service *posapp.Service, opts ...HandlerOption) (*POSHandler, error) {
	if service == nil {
		return nil, errors.New("pos handler: nil service")
	}
	h := &POSHandler{service: service}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

type checkoutRequest struct {
	Items []pos.CartLine `json:"items"`
}

// ServeHTTP routes point-of-sale requests.
func (h *POSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, apiPrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix), "/"), "/")
	method := r.Method

	switch {
	case len(parts) == 1 && parts[0] == "products":
		switch method {
		case http.MethodGet:
			products, err := h.service.Products(r.Context())
			if err != nil {
				respondServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"products": products})
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case len(parts) == 2 && parts[0] == "products":
		switch method {
		case http.MethodGet:
			product, err := h.service.Product(r.Context(), parts[1])
			if err != nil {
				respondServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, product)
		case http.MethodPut:
			h.handleUpdate(w, r, parts[1])
		case http.MethodDelete:
			if err := h.service.DeleteProduct(r.Context(), parts[1]); err != nil {
				respondServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			audit.FromRequest(h.auditLogger, r, "pos.product.delete", "product", parts[1], nil)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case len(parts) == 1 && parts[0] == "checkout":
		if method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleCheckout(w, r)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *POSHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input posapp.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
	audit.FromRequest(h.auditLogger, r, "pos.product.create", "product", product.ID, map[string]any{"price": product.Price.String()})
}

func (h *POSHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var input posapp.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
	audit.FromRequest(h.auditLogger, r, "pos.product.update", "product", product.ID, nil)
}

func (h *POSHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	receipt, err := h.service.Checkout(r.Context(), req.Items)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
	audit.FromRequest(h.auditLogger, r, "pos.checkout", "transaction", receipt.Entry.ID, map[string]any{
		"total": receipt.Sale.Total.String(),
		"lines": len(receipt.Sale.Lines),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if fields := validation.Fields(err); fields != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}
	switch {
	case errors.Is(err, pos.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, pos.ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, pos.ErrEmptyID),
		errors.Is(err, pos.ErrInvalidPrice),
		errors.Is(err, pos.ErrInvalidStock),
		errors.Is(err, pos.ErrEmptyCart),
		errors.Is(err, pos.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
