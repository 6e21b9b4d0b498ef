// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/connectx-campus/connectx/lib/secret"
)

type staticTokens string

func (s staticTokens) AccessToken() string { return string(s) }

type recordingUnauthorized struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingUnauthorized) HandleUnauthorized(method, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, method+" "+path)
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestClient(t *testing.T, handler http.Handler, tokens TokenSource, unauthorized UnauthorizedHandler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(ClientConfig{
		BaseURL:      server.URL + "/api/",
		Tokens:       tokens,
		Unauthorized: unauthorized,
		Logger:       discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func writeEnvelope(t *testing.T, writer http.ResponseWriter, status int, envelope map[string]any) {
	t.Helper()
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(envelope); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	for _, baseURL := range []string{"", "not-absolute", "/api"} {
		if _, err := NewClient(ClientConfig{BaseURL: baseURL}); err == nil {
			t.Errorf("NewClient(%q) succeeded, want error", baseURL)
		}
	}
	client, err := NewClient(ClientConfig{BaseURL: "https://api.connectx.example/api///"})
	if err != nil {
		t.Fatal(err)
	}
	if client.BaseURL() != "https://api.connectx.example/api" {
		t.Fatalf("BaseURL() = %q", client.BaseURL())
	}
}

func TestRequestHeaders(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/auth/me" {
			t.Errorf("path = %q", request.URL.Path)
		}
		if got := request.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("Authorization = %q", got)
		}
		if _, err := uuid.Parse(request.Header.Get("X-Request-ID")); err != nil {
			t.Errorf("X-Request-ID %q is not a UUID", request.Header.Get("X-Request-ID"))
		}
		writeEnvelope(t, writer, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "u1", "name": "Asha", "role": "student"},
		})
	})
	client := newTestClient(t, handler, staticTokens("token-123"), nil)

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.ID != "u1" || user.Role != RoleStudent {
		t.Fatalf("user = %+v", user)
	}
}

func TestNoTokenSendsNoAuthorization(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header %q", request.Header.Get("Authorization"))
		}
		writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	})
	client := newTestClient(t, handler, staticTokens(""), nil)
	if _, err := client.Coupons(context.Background()); err != nil {
		t.Fatalf("Coupons: %v", err)
	}
}

func TestMeAcceptsWrappedUser(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEnvelope(t, writer, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"user": map[string]any{"id": "u2", "role": "college_admin"}},
		})
	})
	client := newTestClient(t, handler, nil, nil)
	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.ID != "u2" || user.Role != RoleCollegeAdmin {
		t.Fatalf("user = %+v", user)
	}
}

func TestServerErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		envelope map[string]any
		want     string
	}{
		{"error preferred", http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid credentials", "message": "ignored"}, "Invalid credentials"},
		{"message fallback", http.StatusConflict, map[string]any{"success": false, "message": "Email already registered"}, "Email already registered"},
		{"success false on 200", http.StatusOK, map[string]any{"success": false, "message": "Coupon expired"}, "Coupon expired"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writeEnvelope(t, writer, test.status, test.envelope)
			})
			client := newTestClient(t, handler, nil, nil)
			_, err := client.RedeemCoupon(context.Background(), "c1")
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not *Error", err)
			}
			if apiErr.StatusCode != test.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, test.status)
			}
			if got := Message(err, "fallback"); got != test.want {
				t.Errorf("Message = %q, want %q", got, test.want)
			}
		})
	}
}

func TestNonJSONErrorUsesFallback(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
		io.WriteString(writer, "<html>bad gateway</html>")
	})
	client := newTestClient(t, handler, nil, nil)
	_, err := client.CancelPremium(context.Background())
	if !IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("err = %v, want 502 *Error", err)
	}
	if got := Message(err, "Something went wrong"); got != "Something went wrong" {
		t.Fatalf("Message = %q", got)
	}
}

func TestUnauthorizedNotifiesHandler(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEnvelope(t, writer, http.StatusUnauthorized, map[string]any{"success": false, "error": "Token expired"})
	})
	recorder := &recordingUnauthorized{}
	client := newTestClient(t, handler, staticTokens("stale"), recorder)

	_, err := client.PendingVerifications(context.Background(), ScopeCollege)
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("err = %v, want 401", err)
	}
	if len(recorder.paths) != 1 || recorder.paths[0] != "GET /college/verifications/pending" {
		t.Fatalf("handler calls = %v", recorder.paths)
	}
}

func TestUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client, err := NewClient(ClientConfig{BaseURL: baseURL, Logger: discardLogger()})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.VerificationStatus(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
	if got := Message(err, "fallback"); got != UnreachableMessage {
		t.Fatalf("Message = %q", got)
	}
}

func TestCanceledContextIsNotUnreachable(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true})
	})
	client := newTestClient(t, handler, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.VerificationStatus(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrUnreachable) {
		t.Fatal("canceled request classified as unreachable")
	}
}

func TestMalformedBodiesUseDefaults(t *testing.T) {
	bodies := []string{"not json", `{"success":true}`, `{"success":true,"data":"nonsense"}`}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				io.WriteString(writer, body)
			})
			client := newTestClient(t, handler, nil, nil)
			ctx := context.Background()

			if bundles, err := client.CoinBundles(ctx); len(bundles) != 0 || bundles == nil || !errors.Is(err, ErrMalformed) {
				t.Errorf("CoinBundles = %#v, %v, want empty non-nil and ErrMalformed", bundles, err)
			}
			if history, err := client.CoinHistory(ctx); len(history) != 0 || history == nil || !errors.Is(err, ErrMalformed) {
				t.Errorf("CoinHistory = %#v, %v, want empty non-nil and ErrMalformed", history, err)
			}
			if status, err := client.PremiumStatus(ctx); status.IsPremium || !errors.Is(err, ErrMalformed) {
				t.Errorf("PremiumStatus = %+v, %v, want not premium and ErrMalformed", status, err)
			}
			pending, err := client.PendingVerifications(ctx, ScopeGlobal)
			if err != nil || len(pending) != 0 {
				t.Errorf("PendingVerifications = %v, %v", pending, err)
			}
			if report, err := client.VerificationStatus(ctx); !errors.Is(err, ErrMalformed) {
				t.Errorf("VerificationStatus = %+v, %v, want ErrMalformed", report, err)
			}
		})
	}
}

func TestLoginRequiresAccessToken(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]string
		json.NewDecoder(request.Body).Decode(&body)
		if body["email"] != "asha@college.edu" || body["password"] != "pw" {
			t.Errorf("login body = %v", body)
		}
		writeEnvelope(t, writer, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"user": map[string]any{"id": "u1"}},
		})
	})
	client := newTestClient(t, handler, nil, nil)
	password, err := secret.NewFromString("pw")
	if err != nil {
		t.Fatal(err)
	}
	defer password.Close()
	if _, err := client.Login(context.Background(), "asha@college.edu", password); err == nil {
		t.Fatal("expected error when the server omits accessToken")
	}
}

func TestSignupSendsPassword(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Errorf("decoding signup body: %v", err)
		}
		if body["password"] != "correct horse" || body["collegeId"] != "col-1" {
			t.Errorf("signup body = %v", body)
		}
		if _, present := body["role"]; present {
			t.Errorf("empty role should be omitted: %v", body)
		}
		writeEnvelope(t, writer, http.StatusCreated, map[string]any{
			"success": true,
			"data": map[string]any{
				"user":         map[string]any{"id": "u9", "role": "student"},
				"accessToken":  "a",
				"refreshToken": "r",
			},
		})
	})
	client := newTestClient(t, handler, nil, nil)
	password, _ := secret.NewFromString("correct horse")
	defer password.Close()
	result, err := client.Signup(context.Background(), SignupRequest{Name: "Asha", CollegeID: "col-1"}, password)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if result.AccessToken != "a" || result.RefreshToken != "r" || result.User.ID != "u9" {
		t.Fatalf("result = %+v", result)
	}
}

func TestOTPPaths(t *testing.T) {
	var seen []string
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]string
		json.NewDecoder(request.Body).Decode(&body)
		keys := make([]string, 0, len(body))
		for key := range body {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		seen = append(seen, request.URL.Path+" "+strings.Join(keys, ","))
		writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "message": "sent"})
	})
	client := newTestClient(t, handler, nil, nil)
	ctx := context.Background()
	client.SendOTP(ctx, OTPEmail, "a@b.edu")
	client.VerifyOTP(ctx, OTPPhone, "+919999999999", "123456")

	want := []string{
		"/api/auth/send-email-otp email",
		"/api/auth/verify-phone-otp otp,phone",
	}
	if strings.Join(seen, "|") != strings.Join(want, "|") {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
}
