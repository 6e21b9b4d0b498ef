// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// FieldPostImage is the multipart field of a post's image file.
const FieldPostImage = "postImage"

// Feed fetches one page of the home feed. An empty cursor starts from
// the newest post.
func (c *Client) Feed(ctx context.Context, limit int, cursor string) (*FeedPage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	var page FeedPage
	if err := c.get(ctx, "/student/posts/feed", query, &page); err != nil {
		if err := c.orDefault(err, "feed"); err != nil {
			return nil, err
		}
	}
	if page.Posts == nil {
		page.Posts = []Post{}
	}
	return &page, nil
}

// CreatePost publishes a post. Caption and at most one of Image and
// ImageURL are sent as a multipart form.
func (c *Client) CreatePost(ctx context.Context, post NewPost) (*Post, string, error) {
	const path = "/student/posts"
	if post.Caption == "" && post.Image == nil && post.ImageURL == "" {
		return nil, "", errors.New("api: a post needs a caption or an image")
	}
	if post.Image != nil && post.ImageURL != "" {
		return nil, "", errors.New("api: a post takes an image file or an image URL, not both")
	}
	fields := url.Values{}
	if post.Caption != "" {
		fields.Set("caption", post.Caption)
	}
	if post.ImageURL != "" {
		fields.Set("image", post.ImageURL)
	}
	var parts []FilePart
	if post.Image != nil {
		image := *post.Image
		image.Field = FieldPostImage
		parts = append(parts, image)
	}
	decoded, err := c.uploadForm(ctx, path, fields, parts...)
	if err != nil {
		return nil, "", err
	}
	created := &Post{}
	if err := c.decodeData(http.MethodPost, path, decoded, created); err != nil {
		// The post exists; only the echo is missing.
		c.logger.Warn("created post not echoed", "error", err)
		created = nil
	}
	return created, decoded.Message, nil
}

// LikePost likes a post; UnlikePost removes the like.
func (c *Client) LikePost(ctx context.Context, postID string) error {
	_, err := c.mutate(ctx, http.MethodPost, "/student/posts/"+url.PathEscape(postID)+"/like", nil)
	return err
}

func (c *Client) UnlikePost(ctx context.Context, postID string) error {
	_, err := c.mutate(ctx, http.MethodDelete, "/student/posts/"+url.PathEscape(postID)+"/like", nil)
	return err
}

// Comment adds a comment to a post.
func (c *Client) Comment(ctx context.Context, postID, text string) (string, error) {
	return c.mutate(ctx, http.MethodPost, "/student/posts/"+url.PathEscape(postID)+"/comments", map[string]string{"text": text})
}

// Comments lists the newest comments on a post.
func (c *Client) Comments(ctx context.Context, postID string, limit int) ([]Comment, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	var comments []Comment
	if err := c.get(ctx, "/student/posts/"+url.PathEscape(postID)+"/comments", query, &comments); err != nil {
		if err := c.orDefault(err, "comments"); err != nil {
			return nil, err
		}
	}
	if comments == nil {
		comments = []Comment{}
	}
	return comments, nil
}

// CoinBundles lists purchasable bundles. The list is never nil, even
// alongside an error, so a caller can render it either way.
func (c *Client) CoinBundles(ctx context.Context) ([]CoinBundle, error) {
	var bundles []CoinBundle
	if err := c.get(ctx, "/coins/bundles", nil, &bundles); err != nil {
		c.logger.Warn("coin bundles unavailable", "error", err)
		return []CoinBundle{}, err
	}
	if bundles == nil {
		bundles = []CoinBundle{}
	}
	return bundles, nil
}

// CoinHistory lists the caller's coin ledger. Like CoinBundles the list
// is empty, not nil, on error.
func (c *Client) CoinHistory(ctx context.Context) ([]CoinTransaction, error) {
	var history []CoinTransaction
	if err := c.get(ctx, "/coins/history", nil, &history); err != nil {
		c.logger.Warn("coin history unavailable", "error", err)
		return []CoinTransaction{}, err
	}
	if history == nil {
		history = []CoinTransaction{}
	}
	return history, nil
}

// GiftCoins transfers coins to another user.
func (c *Client) GiftCoins(ctx context.Context, toUserID string, coins int) (string, error) {
	return c.mutate(ctx, http.MethodPost, "/coins/gift", map[string]any{"toUserId": toUserID, "coins": coins})
}

// PremiumStatus reports the subscription. On error the zero value (not
// premium) is returned with it.
func (c *Client) PremiumStatus(ctx context.Context) (PremiumStatus, error) {
	var status PremiumStatus
	if err := c.get(ctx, "/premium/status", nil, &status); err != nil {
		c.logger.Warn("premium status unavailable", "error", err)
		return PremiumStatus{}, err
	}
	return status, nil
}

// CancelPremium ends the subscription at the period end.
func (c *Client) CancelPremium(ctx context.Context) (string, error) {
	return c.mutate(ctx, http.MethodPost, "/premium/cancel", nil)
}

// Coupons lists the coupons available to the student.
func (c *Client) Coupons(ctx context.Context) ([]Coupon, error) {
	var coupons []Coupon
	if err := c.get(ctx, "/student/coupons", nil, &coupons); err != nil {
		if err := c.orDefault(err, "coupons"); err != nil {
			return nil, err
		}
	}
	if coupons == nil {
		coupons = []Coupon{}
	}
	return coupons, nil
}

// RedeemCoupon claims a coupon.
func (c *Client) RedeemCoupon(ctx context.Context, couponID string) (string, error) {
	return c.mutate(ctx, http.MethodPost, "/student/coupons/"+url.PathEscape(couponID)+"/redeem", nil)
}

// Rewards lists the rewards the student can redeem.
func (c *Client) Rewards(ctx context.Context) ([]Reward, error) {
	var rewards []Reward
	if err := c.get(ctx, "/student/rewards", nil, &rewards); err != nil {
		if err := c.orDefault(err, "rewards"); err != nil {
			return nil, err
		}
	}
	if rewards == nil {
		rewards = []Reward{}
	}
	return rewards, nil
}

// Reward fetches one reward.
func (c *Client) Reward(ctx context.Context, rewardID string) (*Reward, error) {
	var reward Reward
	if err := c.get(ctx, "/student/rewards/"+url.PathEscape(rewardID), nil, &reward); err != nil {
		return nil, err
	}
	return &reward, nil
}

// RedeemReward spends points on a reward.
func (c *Client) RedeemReward(ctx context.Context, rewardID string) (string, error) {
	return c.mutate(ctx, http.MethodPost, "/student/rewards/"+url.PathEscape(rewardID)+"/redeem", nil)
}
