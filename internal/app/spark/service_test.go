package spark

import (
	"context"
	"testing"
	"time"

	"backend/internal/app/profile"
	"backend/internal/app/safety"
	"backend/internal/config"
	"backend/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRepo struct {
	reactions map[[2]uuid.UUID]*ProfileReaction
	quota     map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		reactions: make(map[[2]uuid.UUID]*ProfileReaction),
		quota:     make(map[string]int),
	}
}

func (f *fakeRepo) key(reactorID, targetID uuid.UUID) [2]uuid.UUID {
	return [2]uuid.UUID{reactorID, targetID}
}

func (f *fakeRepo) GetReaction(reactorID, targetID uuid.UUID) (*ProfileReaction, error) {
	if r, ok := f.reactions[f.key(reactorID, targetID)]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpsertReaction(reactorID, targetID uuid.UUID, emoji string) (*ProfileReaction, error) {
	k := f.key(reactorID, targetID)
	if existing, ok := f.reactions[k]; ok {
		existing.Emoji = emoji
		return existing, nil
	}
	r := &ProfileReaction{
		ID:        uuid.New(),
		ReactorID: reactorID,
		TargetID:  targetID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}
	f.reactions[k] = r
	return r, nil
}

func (f *fakeRepo) DeleteReaction(reactorID, targetID uuid.UUID) (bool, error) {
	k := f.key(reactorID, targetID)
	if _, ok := f.reactions[k]; !ok {
		return false, nil
	}
	delete(f.reactions, k)
	return true, nil
}

func (f *fakeRepo) HasMutualSpark(a, b uuid.UUID) (bool, error) {
	_, ab := f.reactions[f.key(a, b)]
	_, ba := f.reactions[f.key(b, a)]
	return ab && ba, nil
}

func (f *fakeRepo) ListByReactor(reactorID uuid.UUID) ([]*ProfileReaction, error) {
	var out []*ProfileReaction
	for _, r := range f.reactions {
		if r.ReactorID == reactorID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByTarget(targetID uuid.UUID) ([]*ProfileReaction, error) {
	var out []*ProfileReaction
	for _, r := range f.reactions {
		if r.TargetID == targetID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) IncrementQuota(userID uuid.UUID, date string) error {
	f.quota[userID.String()+date]++
	return nil
}

func (f *fakeRepo) DecrementQuota(userID uuid.UUID, date string) (bool, error) {
	k := userID.String() + date
	if f.quota[k] <= 0 {
		return false, nil
	}
	f.quota[k]--
	return true, nil
}

func (f *fakeRepo) GetQuotaCount(userID uuid.UUID, date string) (int, error) {
	return f.quota[userID.String()+date], nil
}

func (f *fakeRepo) PruneQuotaBefore(date string) (int64, error) { return 0, nil }

type stubProfiles struct {
	users map[uuid.UUID]*profile.User
}

func (s *stubProfiles) GuestSignup(_ context.Context, _ *profile.GuestSignupRequest, _ string) (*profile.SignupResponse, error) {
	return nil, nil
}

func (s *stubProfiles) GetBySessionKey(_ context.Context, _ string) (*profile.User, error) {
	return nil, nil
}

func (s *stubProfiles) GetByID(_ context.Context, id uuid.UUID) (*profile.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProfiles) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*profile.User, error) {
	var out []*profile.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubProfiles) UpdateDisplayName(_ context.Context, _ uuid.UUID, _ string) error { return nil }
func (s *stubProfiles) UpdateCountry(_ context.Context, _ uuid.UUID, _ string) error     { return nil }
func (s *stubProfiles) UpdateFlagVisibility(_ context.Context, _ uuid.UUID, _ bool) error {
	return nil
}
func (s *stubProfiles) TouchLastSeen(_ uuid.UUID) {}

type stubSafety struct {
	blocked bool
}

func (s *stubSafety) BlockUser(_, _ uuid.UUID) error            { return nil }
func (s *stubSafety) UnblockUser(_, _ uuid.UUID) error          { return nil }
func (s *stubSafety) IsBlockedEitherWay(_, _ uuid.UUID) (bool, error) {
	return s.blocked, nil
}
func (s *stubSafety) GetBlockedIDs(_ uuid.UUID) ([]uuid.UUID, error) { return nil, nil }
func (s *stubSafety) ReportUser(_ *safety.ReportRequest, _ uuid.UUID) (*safety.Report, error) {
	return nil, nil
}

type sparkFixture struct {
	svc      Service
	repo     *fakeRepo
	profiles *stubProfiles
	safety   *stubSafety
	free     uuid.UUID
	premium  uuid.UUID
	target   uuid.UUID
}

func newSparkFixture(t *testing.T) *sparkFixture {
	t.Helper()
	repo := newFakeRepo()
	free, premium, target := uuid.New(), uuid.New(), uuid.New()
	profiles := &stubProfiles{users: map[uuid.UUID]*profile.User{
		free:    {ID: free, Username: "free", PremiumTier: profile.TierFree},
		premium: {ID: premium, Username: "vip", PremiumTier: profile.TierPremium},
		target:  {ID: target, Username: "target", PremiumTier: profile.TierFree},
	}}
	blocks := &stubSafety{}
	cfg := &config.Config{SparkDailyLimit: 2, SparkUndoWindow: time.Hour}

	svc := NewService(repo, profiles, blocks, utils.NewEventBus(), cfg, zap.NewNop())
	return &sparkFixture{
		svc: svc, repo: repo, profiles: profiles, safety: blocks,
		free: free, premium: premium, target: target,
	}
}

func TestSendSparkQuota(t *testing.T) {
	f := newSparkFixture(t)

	// Two new sparks fit the limit.
	for i := 0; i < 2; i++ {
		_, err := f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
			TargetUserID: uuid.New(),
			Emoji:        "👋",
		})
		require.NoError(t, err)
	}

	_, err := f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
		TargetUserID: uuid.New(),
		Emoji:        "👋",
	})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestSendSparkUpdateDoesNotChargeQuota(t *testing.T) {
	f := newSparkFixture(t)

	res, err := f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
		TargetUserID: f.target,
		Emoji:        "👋",
	})
	require.NoError(t, err)
	assert.False(t, res.IsUpdate)

	// Changing the emoji on the same target is free.
	res, err = f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
		TargetUserID: f.target,
		Emoji:        "❤️",
	})
	require.NoError(t, err)
	assert.True(t, res.IsUpdate)
	require.NotNil(t, res.PreviousEmoji)
	assert.Equal(t, "👋", *res.PreviousEmoji)

	used, err := f.repo.GetQuotaCount(f.free, QuotaDate(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestSendSparkPremiumUnlimited(t *testing.T) {
	f := newSparkFixture(t)

	for i := 0; i < 10; i++ {
		_, err := f.svc.SendSpark(context.Background(), f.premium, &SendSparkRequest{
			TargetUserID: uuid.New(),
			Emoji:        "🔥",
		})
		require.NoError(t, err)
	}
}

func TestSendSparkRejections(t *testing.T) {
	f := newSparkFixture(t)

	_, err := f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
		TargetUserID: f.free,
		Emoji:        "👋",
	})
	assert.ErrorIs(t, err, ErrSelfSpark)

	_, err = f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
		TargetUserID: f.target,
		Emoji:        "🙃",
	})
	assert.Error(t, err)

	f.safety.blocked = true
	_, err = f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
		TargetUserID: f.target,
		Emoji:        "👋",
	})
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestSendSparkMutualDetection(t *testing.T) {
	f := newSparkFixture(t)

	res, err := f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
		TargetUserID: f.target,
		Emoji:        "❤️",
	})
	require.NoError(t, err)
	assert.False(t, res.MutualSpark)

	res, err = f.svc.SendSpark(context.Background(), f.target, &SendSparkRequest{
		TargetUserID: f.free,
		Emoji:        "😏",
	})
	require.NoError(t, err)
	assert.True(t, res.MutualSpark)
}

func TestDeleteSparkRefundsQuota(t *testing.T) {
	f := newSparkFixture(t)

	_, err := f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
		TargetUserID: f.target,
		Emoji:        "👋",
	})
	require.NoError(t, err)

	refunded, err := f.svc.DeleteSpark(context.Background(), f.free, f.target)
	require.NoError(t, err)
	assert.True(t, refunded)

	used, err := f.repo.GetQuotaCount(f.free, QuotaDate(time.Now()))
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestDeleteSparkUndoWindow(t *testing.T) {
	f := newSparkFixture(t)

	_, err := f.svc.SendSpark(context.Background(), f.free, &SendSparkRequest{
		TargetUserID: f.target,
		Emoji:        "👋",
	})
	require.NoError(t, err)

	// Backdate the spark past the undo window.
	reaction := f.repo.reactions[f.repo.key(f.free, f.target)]
	reaction.CreatedAt = time.Now().Add(-2 * time.Hour)

	_, err = f.svc.DeleteSpark(context.Background(), f.free, f.target)
	assert.ErrorIs(t, err, ErrUndoExpired)

	_, err = f.svc.DeleteSpark(context.Background(), f.free, uuid.New())
	assert.ErrorIs(t, err, ErrNoSpark)
}
