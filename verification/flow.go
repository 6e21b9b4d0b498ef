// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/lib/clock"
	"github.com/connectx-campus/connectx/query"
)

// StatusKey is the query cache key of the status report.
const StatusKey = "verification/status"

// DefaultRefetchDelay is how long after a face upload the status is
// fetched again.
const DefaultRefetchDelay = time.Second

var (
	// ErrUploadInFlight is returned while another upload has not
	// finished.
	ErrUploadInFlight = errors.New("verification: an upload is already in progress")

	// ErrDuplicateUpload is returned for the exact bytes already
	// accepted for the same stage of this attempt.
	ErrDuplicateUpload = errors.New("verification: this image was already accepted")

	// ErrWrongStep is returned for an upload the current step does not
	// take.
	ErrWrongStep = errors.New("verification: upload not expected at this step")

	// ErrRetryNotAllowed is returned by RequestRetry while the cooldown
	// is running or when nothing was rejected.
	ErrRetryNotAllowed = errors.New("verification: retry is not allowed yet")
)

// Gateway is the part of the API the flow calls. *api.Client
// implements it.
type Gateway interface {
	VerificationStatus(ctx context.Context) (*api.StatusReport, error)
	UploadIDCard(ctx context.Context, image api.FilePart) (string, error)
	UploadFaceImage(ctx context.Context, image api.FilePart) (*api.FaceUploadResult, error)
	SubmitVerification(ctx context.Context, idCard, face api.FilePart) (string, error)
}

// Config configures a Flow.
type Config struct {
	Gateway Gateway

	// Cache holds the status report under StatusKey. A private cache is
	// created when nil.
	Cache *query.Cache

	Clock        clock.Clock
	RefetchDelay time.Duration

	// OnUser receives the user of every status report, so the session
	// and the route guard see verification changes.
	OnUser func(api.User)

	// OnChange is called with the new screen after every change.
	OnChange func(Screen)

	Logger *slog.Logger
}

type stage int

const (
	stageID stage = iota
	stageFace
)

// Flow drives one student's verification. Safe for concurrent use.
type Flow struct {
	gateway      Gateway
	cache        *query.Cache
	clock        clock.Clock
	refetchDelay time.Duration
	onUser       func(api.User)
	onChange     func(Screen)
	logger       *slog.Logger

	// background bounds the delayed refetch and ends at Close.
	background context.Context
	cancel     context.CancelFunc

	mu       sync.Mutex
	report   *api.StatusReport
	resolved bool
	local    Local
	inFlight bool
	accepted map[stage][32]byte
	refetch  *clock.Timer
}

// NewFlow returns a Flow with no report. Call Refresh to load one. A
// report restored from a cache snapshot is shown until then.
func NewFlow(config Config) *Flow {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.RefetchDelay <= 0 {
		config.RefetchDelay = DefaultRefetchDelay
	}
	if config.Cache == nil {
		config.Cache = query.New(config.Clock, config.Logger)
	}

	background, cancel := context.WithCancel(context.Background())
	flow := &Flow{
		gateway:      config.Gateway,
		cache:        config.Cache,
		clock:        config.Clock,
		refetchDelay: config.RefetchDelay,
		onUser:       config.OnUser,
		onChange:     config.OnChange,
		logger:       config.Logger,
		background:   background,
		cancel:       cancel,
		accepted:     make(map[stage][32]byte),
	}
	if cached, ok := query.Get[api.StatusReport](flow.cache, StatusKey); ok {
		flow.report = &cached
	}

	flow.cache.Register(StatusKey, func(ctx context.Context) (any, error) {
		report, err := flow.gateway.VerificationStatus(ctx)
		if err != nil {
			return nil, err
		}
		return *report, nil
	})
	flow.cache.Subscribe(StatusKey, flow.apply)
	return flow
}

// apply installs a report stored in the cache.
func (f *Flow) apply(value any) {
	report, ok := value.(api.StatusReport)
	if !ok {
		f.logger.Error("unexpected status cache value", "type", fmt.Sprintf("%T", value))
		return
	}
	f.mu.Lock()
	f.report = &report
	f.resolved = true
	f.local = f.local.Reconcile(&report)
	f.mu.Unlock()

	if report.User != nil && f.onUser != nil {
		f.onUser(*report.User)
	}
	f.notify()
}

func (f *Flow) notify() {
	if f.onChange != nil {
		f.onChange(f.Screen())
	}
}

// Refresh fetches the status report. Polling never uploads anything.
func (f *Flow) Refresh(ctx context.Context) (Screen, error) {
	if _, err := f.cache.Invalidate(ctx, StatusKey); err != nil {
		return f.Screen(), fmt.Errorf("verification: fetching status: %w", err)
	}
	return f.Screen(), nil
}

// Resolved reports whether a status fetch has succeeded.
func (f *Flow) Resolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

// Report returns a copy of the latest report, or nil.
func (f *Flow) Report() *api.StatusReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.report == nil {
		return nil
	}
	copied := *f.report
	return &copied
}

// Step returns the derived step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Derive(f.report, f.local, f.clock.Now())
}

// Screen returns the current view.
func (f *Flow) Screen() Screen {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View(f.report, f.local, f.clock.Now())
}

// Uploading reports whether an upload is in flight.
func (f *Flow) Uploading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// begin claims the upload slot for an upload at one of the allowed
// steps.
func (f *Flow) begin(images map[stage]Image, allowed ...Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrUploadInFlight
	}
	step := Derive(f.report, f.local, f.clock.Now())
	permitted := false
	for _, candidate := range allowed {
		permitted = permitted || candidate == step
	}
	if !permitted {
		return fmt.Errorf("%w (current step: %s)", ErrWrongStep, step)
	}
	for which, image := range images {
		if previous, ok := f.accepted[which]; ok && previous == image.Digest {
			return fmt.Errorf("%w: %s", ErrDuplicateUpload, image.Name)
		}
	}
	f.inFlight = true
	return nil
}

func (f *Flow) end() {
	f.mu.Lock()
	f.inFlight = false
	f.mu.Unlock()
}

// SubmitIDCard uploads the student ID. It is taken at NeedsID, and at
// NeedsFace to replace the card. Success moves to NeedsFace at once;
// failure changes nothing.
func (f *Flow) SubmitIDCard(ctx context.Context, image Image) (string, error) {
	if err := f.begin(map[stage]Image{stageID: image}, NeedsID, NeedsFace); err != nil {
		return "", err
	}
	message, err := f.gateway.UploadIDCard(ctx, image.part())
	f.end()
	if err != nil {
		return "", fmt.Errorf("verification: uploading ID card: %w", err)
	}

	f.mu.Lock()
	f.local.IDUploaded = true
	f.accepted[stageID] = image.Digest
	f.mu.Unlock()
	f.cache.MarkStale(StatusKey)
	f.logger.Info("ID card accepted", "file", image.Name, "content_type", image.ContentType)
	f.notify()
	return message, nil
}

// SubmitFaceImage uploads the selfie at NeedsFace and returns the
// server's immediate analysis. A status refetch follows after the
// refetch delay. Failure leaves the step at NeedsFace.
func (f *Flow) SubmitFaceImage(ctx context.Context, image Image) (*api.FaceUploadResult, error) {
	if err := f.begin(map[stage]Image{stageFace: image}, NeedsFace); err != nil {
		return nil, err
	}
	result, err := f.gateway.UploadFaceImage(ctx, image.part())
	f.end()
	if err != nil {
		return nil, fmt.Errorf("verification: uploading face image: %w", err)
	}

	f.mu.Lock()
	f.local.LastFace = result
	f.accepted[stageFace] = image.Digest
	f.mu.Unlock()
	f.logger.Info("face image analysed",
		"status", result.Status,
		"reviewed_by", result.ReviewedBy,
		"auto_approved", result.AutoApproved(),
	)
	f.scheduleRefetch()
	f.notify()
	return result, nil
}

// SubmitBoth uploads both images in one call, for servers without the
// split endpoints. It is taken at NeedsID only.
func (f *Flow) SubmitBoth(ctx context.Context, idCard, face Image) (string, error) {
	if err := f.begin(map[stage]Image{stageID: idCard, stageFace: face}, NeedsID); err != nil {
		return "", err
	}
	message, err := f.gateway.SubmitVerification(ctx, idCard.part(), face.part())
	f.end()
	if err != nil {
		return "", fmt.Errorf("verification: submitting: %w", err)
	}

	f.mu.Lock()
	f.local.IDUploaded = true
	f.local.LastFace = &api.FaceUploadResult{Status: api.StatusPending, Message: message}
	f.accepted[stageID] = idCard.Digest
	f.accepted[stageFace] = face.Digest
	f.mu.Unlock()
	f.scheduleRefetch()
	f.notify()
	return message, nil
}

// RequestRetry starts a new attempt after a rejection whose cooldown
// has elapsed.
func (f *Flow) RequestRetry() (Screen, error) {
	f.mu.Lock()
	now := f.clock.Now()
	record := recordOf(f.report)
	if record == nil || Derive(f.report, f.local, now) != Rejected || !RetryAllowed(f.report, now) {
		screen := View(f.report, f.local, now)
		f.mu.Unlock()
		if screen.CooldownText != "" {
			return screen, fmt.Errorf("%w: %s remaining", ErrRetryNotAllowed, screen.CooldownText)
		}
		return screen, ErrRetryNotAllowed
	}
	f.local = Local{RetryOf: record.ID}
	clear(f.accepted)
	f.mu.Unlock()

	f.notify()
	return f.Screen(), nil
}

func (f *Flow) scheduleRefetch() {
	f.mu.Lock()
	if f.refetch != nil {
		f.refetch.Stop()
	}
	f.mu.Unlock()

	timer := f.clock.AfterFunc(f.refetchDelay, func() {
		if _, err := f.Refresh(f.background); err != nil {
			f.logger.Warn("status refetch after upload failed", "error", err)
		}
	})
	f.mu.Lock()
	f.refetch = timer
	f.mu.Unlock()
}

// Close cancels a pending refetch.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.refetch != nil {
		f.refetch.Stop()
	}
	f.mu.Unlock()
	f.cancel()
}
