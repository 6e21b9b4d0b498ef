// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func TestUploadFieldNames(t *testing.T) {
	tests := []struct {
		name      string
		wantPath  string
		wantField string
		upload    func(*Client) error
	}{
		{"id card", "/api/student/verify/id-upload", FieldIDCard, func(client *Client) error {
			_, err := client.UploadIDCard(context.Background(), FilePart{Filename: "idCard.jpg", ContentType: "image/jpeg", Content: []byte("jpeg")})
			return err
		}},
		{"face", "/api/student/verify/face-upload", FieldFaceImage, func(client *Client) error {
			_, err := client.UploadFaceImage(context.Background(), FilePart{Filename: "selfie.jpg", ContentType: "image/jpeg", Content: []byte("jpeg")})
			return err
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				if request.URL.Path != test.wantPath {
					t.Errorf("path = %q, want %q", request.URL.Path, test.wantPath)
				}
				file, header, err := request.FormFile(test.wantField)
				if err != nil {
					t.Errorf("form field %q: %v", test.wantField, err)
					writer.WriteHeader(http.StatusBadRequest)
					return
				}
				content, _ := io.ReadAll(file)
				if string(content) != "jpeg" {
					t.Errorf("content = %q", content)
				}
				if header.Header.Get("Content-Type") != "image/jpeg" {
					t.Errorf("part Content-Type = %q", header.Header.Get("Content-Type"))
				}
				writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"status": "pending"}})
			})
			if err := test.upload(newTestClient(t, handler, nil, nil)); err != nil {
				t.Fatalf("upload: %v", err)
			}
		})
	}
}

func TestFaceUploadOutcome(t *testing.T) {
	tests := []struct {
		name         string
		data         any
		wantStatus   VerificationStatus
		autoApproved bool
	}{
		{"auto approved", map[string]any{"status": "approved", "reviewedBy": "system", "matchScore": 0.93}, StatusApproved, true},
		{"approved by human", map[string]any{"status": "approved", "reviewedBy": "admin-7"}, StatusApproved, false},
		{"rejected", map[string]any{"status": "rejected", "analysisRemarks": "face mismatch"}, StatusRejected, false},
		{"status missing", map[string]any{"matchScore": 0.5}, StatusPending, false},
		{"data missing", nil, StatusPending, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "message": "Analyzed", "data": test.data})
			})
			client := newTestClient(t, handler, nil, nil)
			result, err := client.UploadFaceImage(context.Background(), FilePart{Filename: "s.png", ContentType: "image/png", Content: []byte("png")})
			if err != nil {
				t.Fatalf("UploadFaceImage: %v", err)
			}
			if result.Status != test.wantStatus {
				t.Errorf("Status = %q, want %q", result.Status, test.wantStatus)
			}
			if result.AutoApproved() != test.autoApproved {
				t.Errorf("AutoApproved = %v, want %v", result.AutoApproved(), test.autoApproved)
			}
			if result.Message != "Analyzed" {
				t.Errorf("Message = %q", result.Message)
			}
		})
	}
}

func TestSubmitVerificationSendsBothFiles(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/student/verification" {
			t.Errorf("path = %q", request.URL.Path)
		}
		for _, field := range []string{FieldIDCard, FieldFaceImage} {
			if _, _, err := request.FormFile(field); err != nil {
				t.Errorf("missing %s: %v", field, err)
			}
		}
		writeEnvelope(t, writer, http.StatusOK, map[string]any{"success": true, "message": "Submitted"})
	})
	client := newTestClient(t, handler, nil, nil)
	message, err := client.SubmitVerification(context.Background(),
		FilePart{Filename: "id.png", ContentType: "image/png", Content: []byte("a")},
		FilePart{Filename: "face.png", ContentType: "image/png", Content: []byte("b")})
	if err != nil || message != "Submitted" {
		t.Fatalf("SubmitVerification = %q, %v", message, err)
	}
}

func TestVerificationStatusDecodes(t *testing.T) {
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/student/verify/status" {
			t.Errorf("path = %q", request.URL.Path)
		}
		writeEnvelope(t, writer, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"user": map[string]any{"id": "u1", "verifiedStatus": "rejected"},
				"verification": map[string]any{
					"id": "v1", "status": "rejected", "idCardImage": "https://cdn/id.jpg",
					"faceImage": "https://cdn/face.jpg", "faceMatchScore": 0.41, "collegeMatch": false,
				},
				"canRetry":   false,
				"retryAfter": "2026-03-02T09:00:00Z",
			},
		})
	})
	client := newTestClient(t, handler, nil, nil)
	report, err := client.VerificationStatus(context.Background())
	if err != nil {
		t.Fatalf("VerificationStatus: %v", err)
	}
	if report.Verification == nil || report.Verification.Status != StatusRejected {
		t.Fatalf("verification = %+v", report.Verification)
	}
	if report.Verification.FaceMatchScore == nil || *report.Verification.FaceMatchScore != 0.41 {
		t.Errorf("faceMatchScore = %v", report.Verification.FaceMatchScore)
	}
	if report.Verification.CollegeMatch == nil || *report.Verification.CollegeMatch {
		t.Errorf("collegeMatch = %v", report.Verification.CollegeMatch)
	}
	if report.RetryAfter.IsZero() || report.RetryAfter.Hour() != 9 {
		t.Errorf("retryAfter = %v", report.RetryAfter)
	}
}

func TestTimestampToleratesNullAndEmpty(t *testing.T) {
	for _, input := range []string{`null`, `""`} {
		var value struct {
			At Timestamp `json:"at"`
		}
		if err := json.Unmarshal([]byte(`{"at":`+input+`}`), &value); err != nil {
			t.Fatalf("%s: %v", input, err)
		}
		if !value.At.IsZero() {
			t.Fatalf("%s decoded as %v", input, value.At)
		}
	}
}
