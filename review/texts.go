// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package review

import "github.com/connectx-campus/connectx/api"

// texts are the operator-facing strings of one panel.
type texts struct {
	confirmReject string
	confirmBypass string
	// confirmDelete takes the user's name.
	confirmDelete string

	done   map[Action]string
	failed map[Action]string
}

var failedTexts = map[Action]string{
	ActionApprove: "Failed to approve verification",
	ActionReject:  "Failed to reject verification",
	ActionBypass:  "Failed to bypass verification",
	ActionDelete:  "Failed to delete user",
}

func textsFor(scope api.ReviewScope) texts {
	if scope == api.ScopeCollege {
		return texts{
			confirmReject: "Are you sure you want to reject this verification?",
			confirmBypass: "Are you sure you want to bypass verification for this user? They will be immediately verified.",
			done: map[Action]string{
				ActionApprove: "Verification approved successfully",
				ActionReject:  "Verification rejected",
				ActionBypass:  "Verification bypassed successfully",
			},
			failed: failedTexts,
		}
	}
	return texts{
		confirmReject: "Reject this verification?",
		confirmBypass: "Bypass verification for this user?",
		confirmDelete: "Are you sure you want to delete user %s?",
		done: map[Action]string{
			ActionApprove: "Verification approved",
			ActionReject:  "Verification rejected",
			ActionBypass:  "Verification bypassed",
			ActionDelete:  "User deleted successfully",
		},
		failed: failedTexts,
	}
}
