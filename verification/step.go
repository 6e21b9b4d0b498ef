// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package verification is the student identity-verification state
// machine. The current Step is never stored: Derive computes it from the
// latest server status report plus the small amount of input state the
// client collects (a retry request, what was uploaded this attempt).
//
//	NeedsID -> NeedsFace -> UnderReview -> Approved
//	                                    -> Rejected -> NeedsID (retry allowed)
//
// Flow performs the uploads and keeps the report current; View turns a
// report into what the student sees.
package verification

import (
	"fmt"
	"time"

	"github.com/connectx-campus/connectx/api"
)

// Step is a position in the verification sequence.
type Step string

const (
	NeedsID     Step = "needs_id"
	NeedsFace   Step = "needs_face"
	UnderReview Step = "under_review"
	Approved    Step = "approved"
	Rejected    Step = "rejected"
)

// Local is the input-collection state of the current attempt.
type Local struct {
	// RetryOf is the ID of the rejected record the student asked to
	// retry. Empty when no retry is in progress.
	RetryOf string

	// IDUploaded is set once the ID card of this attempt was accepted.
	IDUploaded bool

	// LastFace is the immediate analysis of this attempt's face upload.
	LastFace *api.FaceUploadResult
}

// RetryRequested reports whether a retry is in progress.
func (l Local) RetryRequested() bool { return l.RetryOf != "" }

// Reconcile drops local state the report has superseded.
func (l Local) Reconcile(report *api.StatusReport) Local {
	record := recordOf(report)
	if l.RetryOf != "" && (record == nil || record.ID != l.RetryOf) {
		// The server replaced the rejected record: the new attempt is
		// now described by the report itself.
		l.RetryOf = ""
	}
	if record != nil && record.FaceImage != "" && l.RetryOf == "" {
		l.IDUploaded = false
	}
	return l
}

// Derive computes the step. now only matters for a rejected record,
// where it decides whether a requested retry may begin.
func Derive(report *api.StatusReport, local Local, now time.Time) Step {
	if report != nil && report.User != nil && userVerified(report.User) {
		return Approved
	}
	record := recordOf(report)
	if record == nil {
		return attempt(local)
	}
	switch record.Status {
	case api.StatusApproved:
		return Approved
	case api.StatusRejected:
		if local.RetryOf == record.ID && RetryAllowed(report, now) {
			return attempt(local)
		}
		return Rejected
	default:
		// Pending, or a status this client does not know: the presence
		// of the face image is the only reliable signal.
		if record.FaceImage != "" {
			return UnderReview
		}
		if local.LastFace != nil {
			return fromUpload(local.LastFace.Status)
		}
		return NeedsFace
	}
}

// attempt is the step of an attempt the server has no record of yet.
func attempt(local Local) Step {
	switch {
	case local.LastFace != nil:
		return fromUpload(local.LastFace.Status)
	case local.IDUploaded:
		return NeedsFace
	default:
		return NeedsID
	}
}

func fromUpload(status api.VerificationStatus) Step {
	switch status {
	case api.StatusApproved:
		return Approved
	case api.StatusRejected:
		return Rejected
	default:
		return UnderReview
	}
}

func userVerified(user *api.User) bool {
	return user.VerifiedStatus == api.StatusApproved || user.BypassVerified
}

func recordOf(report *api.StatusReport) *api.VerificationRecord {
	if report == nil {
		return nil
	}
	return report.Verification
}

// RetryAllowed reports whether a rejected student may start again: the
// server says so, or the cooldown has run out.
func RetryAllowed(report *api.StatusReport, now time.Time) bool {
	if report == nil {
		return false
	}
	if report.CanRetry {
		return true
	}
	return !report.RetryAfter.IsZero() && !now.Before(report.RetryAfter.Time)
}

// Remaining is the cooldown left before a retry, or zero.
func Remaining(report *api.StatusReport, now time.Time) time.Duration {
	if report == nil || RetryAllowed(report, now) || report.RetryAfter.IsZero() {
		return 0
	}
	return report.RetryAfter.Sub(now)
}

// FormatCooldown renders d as hours:minutes, rounding up so a wait that
// has not finished never reads 0:00.
func FormatCooldown(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	minutes := int((d + time.Minute - 1) / time.Minute)
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}
