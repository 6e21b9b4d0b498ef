// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
)

// Multipart field names of the verification uploads.
const (
	FieldIDCard    = "idCard"
	FieldFaceImage = "faceImage"
)

// UploadIDCard submits the student ID image, the first stage.
func (c *Client) UploadIDCard(ctx context.Context, image FilePart) (string, error) {
	image.Field = FieldIDCard
	decoded, err := c.upload(ctx, "/student/verify/id-upload", image)
	if err != nil {
		return "", err
	}
	return decoded.Message, nil
}

// UploadFaceImage submits the selfie, the second stage, and returns the
// server's immediate analysis. A response without data.status is
// reported as pending: the follow-up status poll resolves it.
func (c *Client) UploadFaceImage(ctx context.Context, image FilePart) (*FaceUploadResult, error) {
	const path = "/student/verify/face-upload"
	image.Field = FieldFaceImage
	decoded, err := c.upload(ctx, path, image)
	if err != nil {
		return nil, err
	}
	result := &FaceUploadResult{}
	if err := c.decodeData(http.MethodPost, path, decoded, result); err != nil {
		c.logger.Warn("face upload response has no analysis", "error", err)
	}
	if result.Status == "" {
		c.logger.Warn("face upload response has no status, treating as pending")
		result.Status = StatusPending
	}
	result.Message = decoded.Message
	return result, nil
}

// SubmitVerification sends both images in one request, for backends
// that have not split the stages.
func (c *Client) SubmitVerification(ctx context.Context, idCard, face FilePart) (string, error) {
	idCard.Field = FieldIDCard
	face.Field = FieldFaceImage
	decoded, err := c.upload(ctx, "/student/verification", idCard, face)
	if err != nil {
		return "", err
	}
	return decoded.Message, nil
}

// VerificationStatus polls the student's current verification state. A
// body that does not decode is an error wrapping ErrMalformed, never an
// empty report: an empty report would reopen the upload form during a
// cooldown.
func (c *Client) VerificationStatus(ctx context.Context) (*StatusReport, error) {
	var report StatusReport
	if err := c.get(ctx, "/student/verify/status", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
