package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnabled(t *testing.T) {
	if NewClient("", "key").Enabled() {
		t.Fatalf("client without base URL reports enabled")
	}
	if !NewClient("http://auth.local", "").Enabled() {
		t.Fatalf("client with base URL reports disabled")
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client reports enabled")
	}
}

func TestSignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("url = %q", r.URL.String())
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("apikey = %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "caddie@club.test" || body["password"] != "s3cret" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(Session{
			AccessToken:  "tok-123",
			RefreshToken: "ref-456",
			User:         User{ID: "u1", Email: "caddie@club.test"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key")
	session, err := c.SignInWithPassword(context.Background(), "caddie@club.test", "s3cret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.AccessToken != "tok-123" || session.User.ID != "u1" {
		t.Fatalf("session = %+v", session)
	}
}

func TestSignInRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").SignInWithPassword(context.Background(), "a@b.test", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
}

func TestSignUpWithRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/signup" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("redirect_to"); got != "https://app.test/welcome" {
			t.Errorf("redirect_to = %q", got)
		}
		json.NewEncoder(w).Encode(User{ID: "u2", Email: "new@club.test"})
	}))
	defer srv.Close()

	user, err := NewClient(srv.URL, "k").SignUp(context.Background(), "new@club.test", "pw", "https://app.test/welcome")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID != "u2" {
		t.Fatalf("user = %+v", user)
	}
}

func TestSignInWithOTP(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/otp" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "k").SignInWithOTP(context.Background(), "caddie@club.test"); err != nil {
		t.Fatalf("otp: %v", err)
	}
	if gotBody["email"] != "caddie@club.test" || gotBody["create_user"] != true {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestUserFromToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" || r.Method != http.MethodGet {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		json.NewEncoder(w).Encode(User{ID: "u1", Email: "caddie@club.test"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	user, err := c.UserFromToken(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("user from token: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("user = %+v", user)
	}

	if _, err := c.UserFromToken(context.Background(), "bogus"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
}

func TestSignOut(t *testing.T) {
	var sawToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logout" {
			t.Errorf("path = %q", r.URL.Path)
		}
		sawToken = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "k").SignOut(context.Background(), "tok-123"); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if sawToken != "Bearer tok-123" {
		t.Fatalf("token = %q", sawToken)
	}
}

func TestDisabledClientErrors(t *testing.T) {
	c := NewClient("", "")
	if _, err := c.SignInWithPassword(context.Background(), "a@b.test", "pw"); err == nil {
		t.Fatalf("disabled client signed in")
	}
}
