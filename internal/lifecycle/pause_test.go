package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"subscription-engine/internal/domain/subscriptions"
	"subscription-engine/internal/lifecycle"
)

func TestPause_Preconditions(t *testing.T) {
	paused := paidActive(3)
	paused.Status = subscriptions.StatusPaused
	pending := paidActive(4)
	pending.CancelAtPeriodEnd = true

	f := newFixture(t, trialing(2), paused, pending, *subscriptions.NewFree(5), paidActive(6))
	ctx := context.Background()

	_, err := f.svc.Pause(ctx, 2, now.Add(days(30)))
	assert.ErrorIs(t, err, lifecycle.ErrNotPausable)

	_, err = f.svc.Pause(ctx, 3, now.Add(days(30)))
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyPaused)

	_, err = f.svc.Pause(ctx, 4, now.Add(days(30)))
	assert.ErrorIs(t, err, lifecycle.ErrPendingCancellation)

	_, err = f.svc.Pause(ctx, 5, now.Add(days(30)))
	assert.ErrorIs(t, err, lifecycle.ErrNotPausable)

	_, err = f.svc.Pause(ctx, 6, now.Add(days(91)))
	assert.ErrorIs(t, err, lifecycle.ErrResumeDateTooFar)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidInput)

	_, err = f.svc.Pause(ctx, 6, now)
	assert.ErrorIs(t, err, lifecycle.ErrResumeDateInPast)

	assert.Zero(t, f.records.updates)
	f.provider.AssertNotCalled(t, "Pause", mock.Anything, mock.Anything, mock.Anything)
}

func TestPause_WithinHorizon(t *testing.T) {
	f := newFixture(t, paidActive(1))
	resume := now.Add(days(89))
	f.provider.On("Pause", mock.Anything, "sub_1", resume).Return(nil).Once()

	sub, err := f.svc.Pause(context.Background(), 1, resume)
	require.NoError(t, err)

	assert.Equal(t, subscriptions.StatusPaused, sub.Status)
	require.NotNil(t, sub.PausedAt)
	assert.Equal(t, now, *sub.PausedAt)
	require.NotNil(t, sub.PauseResumesAt)
	assert.Equal(t, resume, *sub.PauseResumesAt)
	assert.Equal(t, subscriptions.TierPro, sub.Tier)
}

func TestPause_ExactHorizonAllowed(t *testing.T) {
	f := newFixture(t, paidActive(1))
	resume := now.Add(days(90))
	f.provider.On("Pause", mock.Anything, "sub_1", resume).Return(nil).Once()

	_, err := f.svc.Pause(context.Background(), 1, resume)
	require.NoError(t, err)
}

func TestPause_ConfigurableHorizon(t *testing.T) {
	f := newFixture(t, paidActive(1))
	svc := lifecycle.New(f.svc.Deps, lifecycle.WithClock(func() time.Time { return now }), lifecycle.WithMaxPauseDays(30))

	_, err := svc.Pause(context.Background(), 1, now.Add(days(31)))
	assert.ErrorIs(t, err, lifecycle.ErrResumeDateTooFar)
	assert.Contains(t, err.Error(), "30 days")
}

func TestPause_ProviderFailureLeavesRecord(t *testing.T) {
	f := newFixture(t, paidActive(1))
	resume := now.Add(days(10))
	f.provider.On("Pause", mock.Anything, "sub_1", resume).Return(errors.New("card_declined")).Once()

	_, err := f.svc.Pause(context.Background(), 1, resume)
	require.ErrorIs(t, err, lifecycle.ErrProvider)

	var pe *lifecycle.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "card_declined", pe.Err.Error())

	assert.Zero(t, f.records.updates)
	assert.Equal(t, subscriptions.StatusActive, f.records.mustGet(t, 1).Status)
}

func TestResume(t *testing.T) {
	paused := paidActive(1)
	paused.Status = subscriptions.StatusPaused
	paused.PausedAt = ptr(now.Add(-days(3)))
	paused.PauseResumesAt = ptr(now.Add(days(10)))
	f := newFixture(t, paused, paidActive(2))
	ctx := context.Background()

	_, err := f.svc.Resume(ctx, 2)
	assert.ErrorIs(t, err, lifecycle.ErrNotPaused)

	f.provider.On("Resume", mock.Anything, "sub_1").Return(nil).Once()
	sub, err := f.svc.Resume(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusActive, sub.Status)
	assert.Nil(t, sub.PausedAt)
	assert.Nil(t, sub.PauseResumesAt)
}

func TestResume_ProviderFailure(t *testing.T) {
	paused := paidActive(1)
	paused.Status = subscriptions.StatusPaused
	f := newFixture(t, paused)
	f.provider.On("Resume", mock.Anything, "sub_1").Return(errors.New("timeout")).Once()

	_, err := f.svc.Resume(context.Background(), 1)
	assert.ErrorIs(t, err, lifecycle.ErrProvider)
	assert.Equal(t, subscriptions.StatusPaused, f.records.mustGet(t, 1).Status)
}

func TestCurrent_ClosesExpiredPause(t *testing.T) {
	paused := paidActive(1)
	paused.Status = subscriptions.StatusPaused
	paused.PausedAt = ptr(now.Add(-days(30)))
	paused.PauseResumesAt = ptr(now.Add(-time.Hour))
	f := newFixture(t, paused)

	view, err := f.svc.Current(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusActive, view.Subscription.Status)
	assert.Nil(t, view.Subscription.PauseResumesAt)
	assert.True(t, view.Policy.HasProAccess)
}
