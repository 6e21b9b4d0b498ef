// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFeedQuery(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/student/posts/feed" {
			t.Errorf("path = %q", request.URL.Path)
		}
		if request.URL.Query().Get("limit") != "20" || request.URL.Query().Get("cursor") != "p-40" {
			t.Errorf("query = %q", request.URL.RawQuery)
		}
		writeEnvelope(t, writer, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"posts":      []any{map[string]any{"id": "p-41", "caption": "Fest tonight", "_count": map[string]any{"likes": 12, "comments": 3}}},
				"nextCursor": "p-41",
				"hasMore":    true,
			},
		})
	})
	client := newTestClient(t, handler, nil, nil)
	page, err := client.Feed(context.Background(), 20, "p-40")
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(page.Posts) != 1 || page.Posts[0].Count.Likes != 12 || !page.HasMore || page.NextCursor != "p-41" {
		t.Fatalf("page = %+v", page)
	}
}

func TestLikeAndUnlike(t *testing.T) {
	var captured []capturedRequest
	client := newTestClient(t, capturingHandler(t, &captured, nil), nil, nil)
	ctx := context.Background()
	if err := client.LikePost(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if err := client.UnlikePost(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if captured[0].method != http.MethodPost || captured[1].method != http.MethodDelete || captured[1].path != "/api/student/posts/p1/like" {
		t.Fatalf("captured = %+v", captured)
	}
}

func TestGiftCoinsBody(t *testing.T) {
	var captured []capturedRequest
	client := newTestClient(t, capturingHandler(t, &captured, nil), nil, nil)
	if _, err := client.GiftCoins(context.Background(), "u-2", 50); err != nil {
		t.Fatal(err)
	}
	if captured[0].body["toUserId"] != "u-2" || captured[0].body["coins"] != float64(50) {
		t.Fatalf("body = %v", captured[0].body)
	}
}

func TestPremiumStatusOnServerError(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEnvelope(t, writer, http.StatusInternalServerError, map[string]any{"success": false})
	})
	client := newTestClient(t, handler, nil, nil)
	status, err := client.PremiumStatus(context.Background())
	if status.IsPremium {
		t.Fatalf("status = %+v", status)
	}
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("err = %v, want the 500", err)
	}
}

func TestCoinBundlesDistinguishEmptyFromUnreachable(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	})
	client := newTestClient(t, handler, nil, nil)
	bundles, err := client.CoinBundles(context.Background())
	if err != nil || len(bundles) != 0 {
		t.Fatalf("empty marketplace = %v, %v", bundles, err)
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	unreachable, err := NewClient(ClientConfig{BaseURL: closed.URL, Logger: discardLogger()})
	if err != nil {
		t.Fatal(err)
	}
	bundles, err = unreachable.CoinBundles(context.Background())
	if !errors.Is(err, ErrUnreachable) || bundles == nil {
		t.Fatalf("unreachable = %v, %v, want empty list and ErrUnreachable", bundles, err)
	}
}

func TestCreatePostMultipart(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost || request.URL.Path != "/api/student/posts" {
			t.Errorf("request = %s %s", request.Method, request.URL.Path)
		}
		if err := request.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if caption := request.FormValue("caption"); caption != "Fest tonight" {
			t.Errorf("caption = %q", caption)
		}
		file, header, err := request.FormFile(FieldPostImage)
		if err != nil {
			t.Fatalf("missing %s: %v", FieldPostImage, err)
		}
		file.Close()
		if header.Filename != "poster.png" || header.Header.Get("Content-Type") != "image/png" {
			t.Errorf("file header = %q %q", header.Filename, header.Header.Get("Content-Type"))
		}
		if request.FormValue("image") != "" {
			t.Error("image URL field sent alongside a file")
		}
		writeEnvelope(t, writer, http.StatusCreated, map[string]any{
			"success": true, "message": "Post created",
			"data": map[string]any{"id": "p-9", "caption": "Fest tonight"},
		})
	})
	client := newTestClient(t, handler, nil, nil)
	post, message, err := client.CreatePost(context.Background(), NewPost{
		Caption: "Fest tonight",
		Image:   &FilePart{Filename: "poster.png", ContentType: "image/png", Content: []byte("png")},
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post == nil || post.ID != "p-9" || message != "Post created" {
		t.Fatalf("CreatePost = %+v, %q", post, message)
	}
}

func TestCreatePostChecksForm(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler(), nil, nil)
	tests := []struct {
		name string
		post NewPost
	}{
		{"empty", NewPost{}},
		{"file and url", NewPost{Image: &FilePart{Filename: "a.png"}, ImageURL: "https://cdn/a.png"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, _, err := client.CreatePost(context.Background(), test.post); err == nil {
				t.Error("CreatePost accepted the form")
			}
		})
	}
}

func TestCreatePostWithImageURL(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if err := request.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if request.FormValue("image") != "https://cdn/a.png" || request.FormValue("caption") != "" {
			t.Errorf("form = %v", request.MultipartForm.Value)
		}
		writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true})
	})
	client := newTestClient(t, handler, nil, nil)
	post, _, err := client.CreatePost(context.Background(), NewPost{ImageURL: "https://cdn/a.png"})
	if err != nil || post != nil {
		t.Fatalf("CreatePost = %+v, %v, want no echo and no error", post, err)
	}
}

func TestRewardEndpoints(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.Method + " " + request.URL.Path {
		case "GET /api/student/rewards":
			writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "data": []any{
				map[string]any{"id": "r-1", "title": "Canteen meal", "pointsRequired": 250},
			}})
		case "GET /api/student/rewards/r-1":
			writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
				"id": "r-1", "title": "Canteen meal", "pointsRequired": 250, "createdAt": "2026-03-01T09:00:00Z",
			}})
		case "POST /api/student/rewards/r-1/redeem":
			writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "message": "Reward redeemed"})
		default:
			t.Errorf("unexpected %s %s", request.Method, request.URL.Path)
			writeEnvelope(t, writer, http.StatusNotFound, map[string]any{"success": false})
		}
	})
	client := newTestClient(t, handler, nil, nil)
	ctx := context.Background()

	rewards, err := client.Rewards(ctx)
	if err != nil || len(rewards) != 1 || rewards[0].PointsRequired != 250 {
		t.Fatalf("Rewards = %+v, %v", rewards, err)
	}
	reward, err := client.Reward(ctx, "r-1")
	if err != nil || reward.Title != "Canteen meal" || reward.CreatedAt.IsZero() {
		t.Fatalf("Reward = %+v, %v", reward, err)
	}
	message, err := client.RedeemReward(ctx, "r-1")
	if err != nil || message != "Reward redeemed" {
		t.Fatalf("RedeemReward = %q, %v", message, err)
	}
}

func TestCollegesIsPublicAndLenient(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/auth/colleges" {
			t.Errorf("path = %q", request.URL.Path)
		}
		if request.Header.Get("Authorization") != "" {
			t.Error("college list sent a bearer token")
		}
		writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "data": []any{
			map[string]any{"id": "clg-1", "name": "IIT Madras", "slug": "iitm"},
		}})
	})
	client := newTestClient(t, handler, nil, nil)
	colleges, err := client.Colleges(context.Background())
	if err != nil || len(colleges) != 1 || colleges[0].Slug != "iitm" {
		t.Fatalf("Colleges = %+v, %v", colleges, err)
	}

	failing := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEnvelope(t, writer, http.StatusServiceUnavailable, map[string]any{"success": false, "message": "down"})
	}), nil, nil)
	colleges, err = failing.Colleges(context.Background())
	if colleges == nil || len(colleges) != 0 || !IsStatus(err, http.StatusServiceUnavailable) {
		t.Fatalf("failing Colleges = %#v, %v", colleges, err)
	}
}
