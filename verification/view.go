// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package verification

import (
	"time"

	"github.com/connectx-campus/connectx/api"
)

// ScreenKind selects which of the four verification screens is shown.
type ScreenKind string

const (
	ScreenForm     ScreenKind = "form"
	ScreenPending  ScreenKind = "pending"
	ScreenApproved ScreenKind = "approved"
	ScreenRejected ScreenKind = "rejected"
)

// Analysis is the server's automated assessment of an attempt.
type Analysis struct {
	FaceMatchScore *float64 `json:"faceMatchScore,omitempty"`
	MatchScore     *float64 `json:"matchScore,omitempty"`
	CollegeMatch   *bool    `json:"collegeMatch,omitempty"`
	Remarks        string   `json:"remarks,omitempty"`
	ReviewedBy     string   `json:"reviewedBy,omitempty"`
}

// Empty reports whether no field is set.
func (a Analysis) Empty() bool {
	return a.FaceMatchScore == nil && a.MatchScore == nil && a.CollegeMatch == nil &&
		a.Remarks == "" && a.ReviewedBy == ""
}

// Stage is one entry of the form's progress indicator.
type Stage struct {
	Label   string `json:"label"`
	Done    bool   `json:"done"`
	Current bool   `json:"current"`
}

// Screen is everything needed to draw the verification page.
type Screen struct {
	Kind  ScreenKind `json:"kind"`
	Step  Step       `json:"step"`
	Title string     `json:"title"`
	Body  string     `json:"body"`

	// Stages is set on the form screen.
	Stages []Stage `json:"stages,omitempty"`

	Analysis     Analysis `json:"analysis,omitzero"`
	AutoApproved bool     `json:"autoApproved,omitempty"`

	// RetryEnabled is the state of the rejected screen's "Try Again"
	// action. Cooldown is the wait left while it is disabled.
	RetryEnabled bool          `json:"retryEnabled,omitempty"`
	Cooldown     time.Duration `json:"cooldown,omitempty"`
	CooldownText string        `json:"cooldownText,omitempty"`
}

var stageLabels = [...]string{"Upload ID", "Face Scan", "Verify"}

// View maps a status report to a screen. It is a pure function of its
// arguments.
func View(report *api.StatusReport, local Local, now time.Time) Screen {
	step := Derive(report, local, now)
	record := recordOf(report)
	if record != nil && local.RetryOf == record.ID {
		// A fresh attempt carries nothing over from the rejected one.
		record = nil
	}
	screen := Screen{Step: step, Analysis: analysisOf(record, local.LastFace)}

	switch step {
	case Approved:
		screen.Kind = ScreenApproved
		screen.Title = "You're Verified!"
		screen.Body = "Your verification has been approved."
		screen.AutoApproved = screen.Analysis.ReviewedBy == api.ReviewedBySystem
	case UnderReview:
		screen.Kind = ScreenPending
		screen.Title = "Verification Pending"
		screen.Body = "Your verification is under review."
	case Rejected:
		screen.Kind = ScreenRejected
		screen.Title = "Verification Rejected"
		screen.RetryEnabled = RetryAllowed(report, now)
		if screen.RetryEnabled {
			screen.Body = "Please try submitting again."
		} else if wait := Remaining(report, now); wait > 0 {
			screen.Cooldown = wait
			screen.CooldownText = FormatCooldown(wait)
			screen.Body = "You can try again in " + screen.CooldownText + "."
		} else {
			screen.Body = "Retry is not available yet."
		}
	default:
		screen.Kind = ScreenForm
		screen.Title = "Get Verified"
		screen.Body = "Prove you're a real campus student"
		screen.Stages = stages(step)
	}
	return screen
}

func stages(step Step) []Stage {
	current := 0
	if step == NeedsFace {
		current = 1
	}
	out := make([]Stage, len(stageLabels))
	for i, label := range stageLabels {
		out[i] = Stage{Label: label, Done: i < current, Current: i == current}
	}
	return out
}

// analysisOf prefers the record's values and fills gaps from the upload
// response, which arrives before the record is refreshed.
func analysisOf(record *api.VerificationRecord, upload *api.FaceUploadResult) Analysis {
	var analysis Analysis
	if record != nil {
		analysis = Analysis{
			FaceMatchScore: record.FaceMatchScore,
			MatchScore:     record.MatchScore,
			CollegeMatch:   record.CollegeMatch,
			Remarks:        record.AnalysisRemarks,
			ReviewedBy:     record.ReviewedBy,
		}
	}
	if upload == nil {
		return analysis
	}
	if analysis.FaceMatchScore == nil {
		analysis.FaceMatchScore = upload.FaceMatchScore
	}
	if analysis.MatchScore == nil {
		analysis.MatchScore = upload.MatchScore
	}
	if analysis.CollegeMatch == nil {
		analysis.CollegeMatch = upload.CollegeMatch
	}
	if analysis.Remarks == "" {
		analysis.Remarks = upload.AnalysisRemarks
	}
	if analysis.ReviewedBy == "" {
		analysis.ReviewedBy = upload.ReviewedBy
	}
	return analysis
}
