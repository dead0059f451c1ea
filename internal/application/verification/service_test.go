package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shop-api-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCodeStore is an in-memory codeStore so lifecycle properties
// (overwrite on reissue, delete on redemption) can be asserted directly.
type fakeCodeStore struct {
	items     map[string]domain.VerificationCode
	deleteErr error
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{items: make(map[string]domain.VerificationCode)}
}

func (f *fakeCodeStore) Put(_ context.Context, v *domain.VerificationCode) error {
	f.items[v.OwnerID] = *v
	return nil
}

func (f *fakeCodeStore) Get(_ context.Context, ownerID string) (*domain.VerificationCode, error) {
	v, ok := f.items[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (f *fakeCodeStore) Delete(_ context.Context, ownerID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.items, ownerID)
	return nil
}

// fakeClock lets tests advance simulated time.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testAccount struct {
	id    string
	email string
}

func (a testAccount) AccountID() string    { return a.id }
func (a testAccount) ContactEmail() string { return a.email }

func newTestService(store *fakeCodeStore, clock *fakeClock) Service {
	return NewService(ServiceDeps{
		CodeRepo: store,
		Validity: 60 * time.Minute,
		Now:      clock.Now,
	})
}

var accountA = testAccount{id: "acc-a", email: "a@example.com"}

func TestIssue_StoresOneRecord(t *testing.T) {
	store := newFakeCodeStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(store, clock)

	code, err := svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)
	assert.Len(t, code, 4)

	require.Len(t, store.items, 1)
	stored := store.items["acc-a"]
	assert.Equal(t, code, stored.Code)
	assert.Equal(t, domain.PurposeSignup, stored.Purpose)
	assert.Equal(t, clock.Now().Unix(), stored.IssuedAt)
}

func TestIssue_Twice_LeavesExactlyOneLiveCode(t *testing.T) {
	store := newFakeCodeStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(store, clock)

	_, err := svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	second, err := svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)

	require.Len(t, store.items, 1)
	stored := store.items["acc-a"]
	assert.Equal(t, second, stored.Code, "only the latest code is live")
	assert.Equal(t, clock.Now().Unix(), stored.IssuedAt, "reissue must reset issued_at")
}

func TestValidate_Success_ConsumesCode(t *testing.T) {
	store := newFakeCodeStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(store, clock)

	code, err := svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)

	require.NoError(t, svc.Validate(context.Background(), "acc-a", code, domain.PurposeSignup))
	assert.Empty(t, store.items, "successful redemption deletes the record")

	// Replaying the same code fails because the record is gone.
	err = svc.Validate(context.Background(), "acc-a", code, domain.PurposeSignup)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestValidate_NoCode_ReturnsNotFound(t *testing.T) {
	svc := newTestService(newFakeCodeStore(), &fakeClock{t: time.Unix(1_700_000_000, 0)})
	err := svc.Validate(context.Background(), "acc-a", "1234", domain.PurposeSignup)
	assert.ErrorIs(t, err, ErrCodeNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestValidate_WrongCode_LeavesRecordUntouched(t *testing.T) {
	store := newFakeCodeStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(store, clock)

	_, err := svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)
	before := store.items["acc-a"]

	err = svc.Validate(context.Background(), "acc-a", "no-match", domain.PurposeSignup)
	assert.ErrorIs(t, err, ErrCodeInvalid)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	after := store.items["acc-a"]
	assert.Equal(t, before, after, "a mismatch must not mutate or delete the record")
}

func TestValidate_Expired(t *testing.T) {
	store := newFakeCodeStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(store, clock)

	code, err := svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)

	// One second inside the window still passes the expiry check.
	clock.Advance(60*time.Minute - time.Second)
	require.NoError(t, svc.Validate(context.Background(), "acc-a", code, domain.PurposeSignup))

	code, err = svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)
	clock.Advance(60*time.Minute + time.Second)

	err = svc.Validate(context.Background(), "acc-a", code, domain.PurposeSignup)
	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.Len(t, store.items, 1, "expired records stay until the next reissue")
}

func TestValidate_ExpiredAndWrong_ReportsInvalid(t *testing.T) {
	store := newFakeCodeStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(store, clock)

	_, err := svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	// Match is checked before expiry, so a wrong code after expiry never
	// discloses that the submitted value was once correct.
	err = svc.Validate(context.Background(), "acc-a", "no-match", domain.PurposeSignup)
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestValidate_WrongPurpose_ReportsInvalid(t *testing.T) {
	store := newFakeCodeStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(store, clock)

	code, err := svc.Issue(context.Background(), accountA, domain.PurposePasswordReset)
	require.NoError(t, err)

	// A reset code must not confirm an email address.
	err = svc.Validate(context.Background(), "acc-a", code, domain.PurposeSignup)
	assert.ErrorIs(t, err, ErrCodeInvalid)
	assert.Len(t, store.items, 1, "a purpose mismatch must not consume the record")

	require.NoError(t, svc.Validate(context.Background(), "acc-a", code, domain.PurposePasswordReset))
	assert.Empty(t, store.items)
}

func TestResend_ResetsValidityWindow(t *testing.T) {
	store := newFakeCodeStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(store, clock)

	_, err := svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	code, err := svc.Resend(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)

	// 59 minutes after the resend is 118 minutes after the original
	// issue — valid only because resend restarted the clock.
	clock.Advance(59 * time.Minute)
	require.NoError(t, svc.Validate(context.Background(), "acc-a", code, domain.PurposeSignup))
}

func TestValidate_ConcreteScenario(t *testing.T) {
	store := newFakeCodeStore()
	start := time.Unix(1_700_000_000, 0)
	clock := &fakeClock{t: start}
	svc := newTestService(store, clock)

	// Code "4821" issued for account A at t=0.
	store.items["acc-a"] = domain.VerificationCode{
		OwnerID:  "acc-a",
		Code:     "4821",
		Purpose:  domain.PurposeSignup,
		IssuedAt: start.Unix(),
	}

	clock.Advance(10 * time.Minute)
	err := svc.Validate(context.Background(), "acc-a", "9999", domain.PurposeSignup)
	assert.ErrorIs(t, err, ErrCodeInvalid)
	assert.Equal(t, "4821", store.items["acc-a"].Code, "record unchanged after mismatch")

	require.NoError(t, svc.Validate(context.Background(), "acc-a", "4821", domain.PurposeSignup))
	assert.Empty(t, store.items)

	clock.Advance(time.Minute)
	err = svc.Validate(context.Background(), "acc-a", "4821", domain.PurposeSignup)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestValidate_DeleteFailureSurfaces(t *testing.T) {
	store := newFakeCodeStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(store, clock)

	code, err := svc.Issue(context.Background(), accountA, domain.PurposeSignup)
	require.NoError(t, err)

	store.deleteErr = errors.New("dynamo unavailable")
	err = svc.Validate(context.Background(), "acc-a", code, domain.PurposeSignup)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCodeInvalid)
}

func TestNewService_Defaults(t *testing.T) {
	store := newFakeCodeStore()
	svc := NewService(ServiceDeps{CodeRepo: store})

	code, err := svc.Issue(context.Background(), accountA, domain.PurposePasswordReset)
	require.NoError(t, err)
	assert.Len(t, code, 4)
	require.NoError(t, svc.Validate(context.Background(), "acc-a", code, domain.PurposePasswordReset))
}
