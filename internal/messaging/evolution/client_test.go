package evolution

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_SendText(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/message/sendText/sensei-primary" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("apikey") != "secret-key" {
			t.Errorf("missing apikey header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key":{"id":"MSG-1"},"status":"PENDING"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/", "secret-key")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	res, err := client.SendText(context.Background(), DefaultInstance, "5511999990000", "Olá!")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.MessageID != "MSG-1" || res.Status != "PENDING" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got["number"] != "5511999990000" || got["text"] != "Olá!" || got["delay"] != float64(1200) || got["linkPreview"] != true {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/instance/connectionState/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, "instance closed", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "k")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.SendText(context.Background(), "main", "5511", "x"); err == nil || !strings.Contains(err.Error(), "http 400") {
		t.Fatalf("expected http 400 error, got %v", err)
	}
	if _, err := client.ConnectionState(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_InstanceLifecycle(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/instance/create":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["integration"] != "WHATSAPP-BAILEYS" || body["qrcode"] != true {
				t.Errorf("unexpected create body: %v", body)
			}
			_, _ = w.Write([]byte(`{"instance":{"instanceName":"dojo"},"qrcode":{"base64":"data:image/png;base64,AAA"}}`))
		case "/instance/connect/dojo":
			_, _ = w.Write([]byte(`{"code":"2@abc","base64":"data:image/png;base64,BBB"}`))
		case "/instance/connectionState/dojo":
			_, _ = w.Write([]byte(`{"instance":{"instanceName":"dojo","state":"open"}}`))
		case "/instance/fetchInstances":
			_, _ = w.Write([]byte(`[{"name":"dojo","connectionStatus":"open"},{"instance":{"instanceName":"old","status":"close"}}]`))
		case "/instance/delete/dojo":
			_, _ = w.Write([]byte(`{"status":"SUCCESS"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "k")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()
	qr, err := client.CreateInstance(ctx, "dojo")
	if err != nil || qr.Base64 == "" {
		t.Fatalf("create: %v %+v", err, qr)
	}
	qr, err = client.ConnectInstance(ctx, "dojo")
	if err != nil || qr.Code != "2@abc" {
		t.Fatalf("connect: %v %+v", err, qr)
	}
	state, err := client.ConnectionState(ctx, "dojo")
	if err != nil || !state.Open() {
		t.Fatalf("state: %v %+v", err, state)
	}
	instances, err := client.FetchInstances(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(instances) != 2 || instances[0].Name != "dojo" || instances[0].Status != "open" || instances[1].Name != "old" || instances[1].Status != "close" {
		t.Fatalf("unexpected instances: %+v", instances)
	}
	if err := client.DeleteInstance(ctx, "dojo"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(calls) != 5 || calls[4] != "DELETE /instance/delete/dojo" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient("", "k"); err == nil {
		t.Fatalf("expected error for empty base url")
	}
	if _, err := NewClient("http://gw", ""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(11) 99999-0000", "5511999990000"},
		{"11 3333-4444", "551133334444"},
		{"+55 11 99999-0000", "5511999990000"},
		{"351912345678", "351912345678"},
		{"", ""},
		{"n/a", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in, ""); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := NormalizePhone("912345678", "351"); got != "351912345678" {
		t.Fatalf("custom country code: got %q", got)
	}
}
