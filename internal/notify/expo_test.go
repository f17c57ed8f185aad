package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]", true},
		{"ExpoPushToken[xxxxxxxxxxxxxxxxxxxxxx]", true},
		{"ExponentPushToken[]", false},
		{"ExpoPushToken[]", false},
		{"ExponentPushToken[abc", false},
		{"abc]", false},
		{"", false},
		{"fcm:AAAA-raw-token", false},
	}
	for _, tt := range tests {
		if got := ValidateToken(tt.token); got != tt.want {
			t.Errorf("ValidateToken(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestExpoClientSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/push/send" {
			t.Errorf("path = %q, want /push/send", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}

		var msgs []PushMessage
		if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(msgs) != 2 {
			t.Errorf("got %d messages, want 2", len(msgs))
		}

		json.NewEncoder(w).Encode(map[string]any{
			"data": []Ticket{
				{ID: "tk-1", Status: "ok"},
				{ID: "", Status: "error", Details: TicketDetails{Error: ErrDeviceNotRegistered}},
			},
		})
	}))
	defer srv.Close()

	c := NewExpoClient(srv.URL, "secret", 600, nil)
	tickets, err := c.Send(context.Background(), []PushMessage{
		{To: token("a"), Title: "t", Body: "b"},
		{To: token("b"), Title: "t", Body: "b"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("got %d tickets, want 2", len(tickets))
	}
	if tickets[0].ID != "tk-1" || tickets[0].Status != ticketStatusOK {
		t.Errorf("first ticket = %+v", tickets[0])
	}
	if tickets[1].Details.Error != ErrDeviceNotRegistered {
		t.Errorf("second ticket error = %q", tickets[1].Details.Error)
	}
}

func TestExpoClientReceipts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/push/getReceipts" {
			t.Errorf("path = %q, want /push/getReceipts", r.URL.Path)
		}
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.IDs) != 2 {
			t.Errorf("got ids %v, want 2 entries", body.IDs)
		}
		// tk-2 is still pending: absent from the response.
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]Receipt{
				"tk-1": {Status: "ok"},
			},
		})
	}))
	defer srv.Close()

	c := NewExpoClient(srv.URL, "", 600, nil)
	receipts, err := c.Receipts(context.Background(), []string{"tk-1", "tk-2"})
	if err != nil {
		t.Fatalf("Receipts: %v", err)
	}
	if r, ok := receipts["tk-1"]; !ok || r.Status != ticketStatusOK {
		t.Errorf("tk-1 receipt = %+v, ok=%v", r, ok)
	}
	if _, ok := receipts["tk-2"]; ok {
		t.Errorf("pending receipt tk-2 should be absent")
	}
}

func TestExpoClientNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewExpoClient(srv.URL, "", 600, nil)
	if _, err := c.Send(context.Background(), []PushMessage{{To: token("a")}}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestExpoClientOmitsEmptyAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("Authorization header set without an access token")
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []Ticket{}})
	}))
	defer srv.Close()

	c := NewExpoClient(srv.URL, "", 600, nil)
	if _, err := c.Send(context.Background(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
