// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/connectx-campus/connectx/lib/codec"
)

// Role is a user's role. The set is closed.
type Role string

const (
	RoleStudent      Role = "student"
	RoleCollegeAdmin Role = "college_admin"
	RoleSuperAdmin   Role = "super_admin"
)

// VerificationStatus is the lifecycle state of a verification record
// and the summary state on a User.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusApproved VerificationStatus = "approved"
	StatusRejected VerificationStatus = "rejected"
)

// ReviewedBySystem is the reviewedBy value of automated decisions.
const ReviewedBySystem = "system"

// Timestamp is an RFC 3339 instant that tolerates null and "" as the
// zero time.
type Timestamp struct{ time.Time }

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		t.Time = time.Time{}
		return nil
	}
	return json.Unmarshal(trimmed, &t.Time)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

var cborNull = []byte{0xf6}

func (t Timestamp) MarshalCBOR() ([]byte, error) {
	if t.IsZero() {
		return cborNull, nil
	}
	return codec.Marshal(t.Time)
}

func (t *Timestamp) UnmarshalCBOR(data []byte) error {
	if bytes.Equal(data, cborNull) {
		t.Time = time.Time{}
		return nil
	}
	return codec.Unmarshal(data, &t.Time)
}

// User is the account record the session store caches.
type User struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Username       string             `json:"username"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone,omitempty"`
	Role           Role               `json:"role"`
	CollegeID      string             `json:"collegeId,omitempty"`
	Batch          string             `json:"batch,omitempty"`
	EmailVerified  bool               `json:"emailVerified"`
	PhoneVerified  bool               `json:"phoneVerified"`
	VerifiedStatus VerificationStatus `json:"verifiedStatus"`
	BypassVerified bool               `json:"bypassVerified"`
	Points         int                `json:"points"`
	Coins          int                `json:"coins"`
	IsPremium      bool               `json:"isPremium"`
	Avatar         string             `json:"avatar,omitempty"`
	CreatedAt      Timestamp          `json:"createdAt"`
}

// VerificationRecord is one identity-verification attempt. FaceImage is
// empty until the face stage has been uploaded. The analysis fields are
// filled in by the server and may change between polls.
type VerificationRecord struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	IDCardImage     string             `json:"idCardImage"`
	FaceImage       string             `json:"faceImage,omitempty"`
	Status          VerificationStatus `json:"status"`
	FaceMatchScore  *float64           `json:"faceMatchScore,omitempty"`
	CollegeMatch    *bool              `json:"collegeMatch,omitempty"`
	MatchScore      *float64           `json:"matchScore,omitempty"`
	AnalysisRemarks string             `json:"analysisRemarks,omitempty"`
	ReviewedBy      string             `json:"reviewedBy,omitempty"`
	CreatedAt       Timestamp          `json:"createdAt"`
}

// StatusReport is the answer of GET /student/verify/status.
// Verification is nil when the student has never uploaded.
type StatusReport struct {
	User         *User               `json:"user"`
	Verification *VerificationRecord `json:"verification"`
	CanRetry     bool                `json:"canRetry"`
	RetryAfter   Timestamp           `json:"retryAfter"`
}

// FaceUploadResult is the immediate analysis returned by the face
// upload. Status is the canonical outcome.
type FaceUploadResult struct {
	Status          VerificationStatus `json:"status"`
	MatchScore      *float64           `json:"matchScore,omitempty"`
	FaceMatchScore  *float64           `json:"faceMatchScore,omitempty"`
	CollegeMatch    *bool              `json:"collegeMatch,omitempty"`
	AnalysisRemarks string             `json:"analysisRemarks,omitempty"`
	ReviewedBy      string             `json:"reviewedBy,omitempty"`

	// Message is the envelope message, for display.
	Message string `json:"-"`
}

// AutoApproved reports whether the server approved without a human.
func (r *FaceUploadResult) AutoApproved() bool {
	return r.Status == StatusApproved && r.ReviewedBy == ReviewedBySystem
}

// PendingVerification is a review-queue entry.
type PendingVerification struct {
	VerificationRecord
	User PendingUser `json:"user"`
}

// PendingUser is the applicant summary embedded in review entries.
type PendingUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Batch   string `json:"batch,omitempty"`
	College *struct {
		Name string `json:"name"`
	} `json:"college,omitempty"`
}

// CollegeName returns the applicant's college name or "".
func (u PendingUser) CollegeName() string {
	if u.College == nil {
		return ""
	}
	return u.College.Name
}

// AuthResult is returned by login and signup.
type AuthResult struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Person is the short user reference embedded in posts and ledgers.
type Person struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Post is a feed entry.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Caption   string    `json:"caption,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	User      Person    `json:"user"`
	Count     struct {
		Likes    int `json:"likes"`
		Comments int `json:"comments"`
	} `json:"_count"`
}

// FeedPage is one cursor page of the feed.
type FeedPage struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt Timestamp `json:"createdAt"`
	User      Person    `json:"user"`
}

// CoinBundle is a purchasable coin package.
type CoinBundle struct {
	ID        int `json:"id"`
	AmountINR int `json:"amountINR"`
	Coins     int `json:"coins"`
}

// CoinTransaction is one ledger entry.
type CoinTransaction struct {
	ID        int       `json:"id"`
	FromUser  string    `json:"fromUser,omitempty"`
	ToUser    string    `json:"toUser,omitempty"`
	Coins     int       `json:"coins"`
	Type      string    `json:"type"`
	CreatedAt Timestamp `json:"createdAt"`
	Sender    *Person   `json:"sender,omitempty"`
	Receiver  *Person   `json:"receiver,omitempty"`
}

// PremiumStatus is the subscription state. The zero value means not
// premium.
type PremiumStatus struct {
	IsPremium        bool      `json:"isPremium"`
	PlanType         string    `json:"planType,omitempty"`
	PremiumExpiry    Timestamp `json:"premiumExpiry"`
	PremiumBadge     string    `json:"premiumBadge,omitempty"`
	CurrentPeriodEnd Timestamp `json:"currentPeriodEnd"`
}

// Coupon is a vendor coupon.
type Coupon struct {
	ID        string    `json:"id"`
	Vendor    string    `json:"vendor"`
	Value     string    `json:"value"`
	Expiry    Timestamp `json:"expiry"`
	QRCode    string    `json:"qrCode,omitempty"`
	UsedBy    string    `json:"usedBy,omitempty"`
	UsedAt    Timestamp `json:"usedAt"`
	CreatedAt Timestamp `json:"createdAt"`
}

// College is a campus a student can sign up under.
type College struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Reward is an item a student can redeem with points.
type Reward struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	PointsRequired int       `json:"pointsRequired"`
	Image          string    `json:"image,omitempty"`
	CreatedAt      Timestamp `json:"createdAt"`
}

// NewPost is the create-post form. Image is uploaded as the postImage
// file; ImageURL references an already hosted image instead.
type NewPost struct {
	Caption  string
	Image    *FilePart
	ImageURL string
}
