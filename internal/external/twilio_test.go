package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"windalert/internal/types"
)

func newTestTwilio(serverURL string) *TwilioClient {
	return NewTwilioClientWithBase(
		NewBaseClient(http.DefaultClient, "twilio-test", NoRetryPolicy(), UserAgent),
		TwilioConfig{
			AccountSID: "AC123",
			AuthToken:  "secret-token",
			BaseURL:    serverURL,
			Logger:     discardLogger(),
		},
	)
}

func TestTwilioSendSMS_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret-token" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("From") != "+16045550100" || r.PostForm.Get("To") != "+17785550199" {
			t.Errorf("form = %v", r.PostForm)
		}
		if r.PostForm.Get("Body") != "NW 30 km/h!" {
			t.Errorf("Body = %q", r.PostForm.Get("Body"))
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM0001","status":"queued"}`))
	}))
	defer server.Close()

	sid, err := newTestTwilio(server.URL).SendSMS(context.Background(), "+16045550100", "+17785550199", "NW 30 km/h!")
	if err != nil {
		t.Fatalf("SendSMS returned error: %v", err)
	}
	if sid != "SM0001" {
		t.Errorf("sid = %q, want SM0001", sid)
	}
}

func TestTwilioSendSMS_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))
	}))
	defer server.Close()

	_, err := newTestTwilio(server.URL).SendSMS(context.Background(), "+1", "bad", "hi")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	code := types.CodeOf(err)
	if code != types.ErrCodeUpstreamSMSProvider {
		t.Errorf("code = %s, want %s", code, types.ErrCodeUpstreamSMSProvider)
	}
	if code.IsTransient() {
		t.Error("a rejected message must not be retried")
	}
}

func TestTwilioSendSMS_ServerErrorSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestTwilio(server.URL).SendSMS(context.Background(), "+1", "+2", "hi")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !types.CodeOf(err).IsTransient() {
		t.Errorf("code %s should be transient", types.CodeOf(err))
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestTwilioSendSMS_MissingSID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer server.Close()

	_, err := newTestTwilio(server.URL).SendSMS(context.Background(), "+1", "+2", "hi")
	if code := types.CodeOf(err); code != types.ErrCodeUpstreamSMSProvider {
		t.Errorf("code = %s, want %s", code, types.ErrCodeUpstreamSMSProvider)
	}
}
