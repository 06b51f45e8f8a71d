package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peejay-git/stallions/internal/engine"
	"github.com/peejay-git/stallions/internal/idgen"
	"github.com/peejay-git/stallions/internal/ledger"
	"github.com/peejay-git/stallions/internal/models"
	"github.com/peejay-git/stallions/internal/store"
)

type testServer struct {
	handler http.Handler
	ledger  *ledger.Ledger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	l := ledger.New(s)
	eng := engine.New(s, engine.RealClock(), idgen.New(), l)
	return &testServer{handler: NewServer(eng, l).Router(), ledger: l}
}

// do runs a request as the given principal and decodes the JSON response
// into out when out is non-nil.
func (ts *testServer) do(t *testing.T, method, path string, as models.Principal, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if as != "" {
		req.Header.Set(PrincipalHeader, string(as))
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func createBountyBody() map[string]any {
	return map[string]any{
		"title":         "Fix flaky test",
		"description":   "CI fails one run in five",
		"category":      "development",
		"reward_amount": 100,
		"reward_asset":  "XLM",
		"deadline":      time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"skills":        []string{"go"},
	}
}

func (ts *testServer) createBounty(t *testing.T, as models.Principal) *models.Bounty {
	t.Helper()
	var b models.Bounty
	w := ts.do(t, "POST", "/api/v1/bounties", as, createBountyBody(), &b)
	require.Equal(t, http.StatusCreated, w.Code)
	return &b
}

func (ts *testServer) submitWork(t *testing.T, as models.Principal, bountyID string) *models.Submission {
	t.Helper()
	var sub models.Submission
	w := ts.do(t, "POST", "/api/v1/bounties/"+bountyID+"/submissions", as,
		map[string]any{"content": "patch attached"}, &sub)
	require.Equal(t, http.StatusCreated, w.Code)
	return &sub
}

func TestCreateAndGetBounty(t *testing.T) {
	ts := newTestServer(t)

	b := ts.createBounty(t, "GOWNER")
	assert.Len(t, b.ID, 64)
	assert.Equal(t, models.BountyStatusOpen, b.Status)
	assert.Equal(t, models.Principal("GOWNER"), b.Owner)

	var got models.Bounty
	w := ts.do(t, "GET", "/api/v1/bounties/"+b.ID, "", nil, &got)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, b.ID, got.ID)
}

func TestCreateBounty_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/bounties", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBounty_ValidationError(t *testing.T) {
	ts := newTestServer(t)

	body := createBountyBody()
	body["title"] = ""
	w := ts.do(t, "POST", "/api/v1/bounties", "GOWNER", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "title")
}

func TestGetBounty_NotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/v1/bounties/missing", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBounties(t *testing.T) {
	ts := newTestServer(t)

	first := ts.createBounty(t, "GOWNER")
	second := ts.createBounty(t, "GOWNER")

	var bounties []*models.Bounty
	w := ts.do(t, "GET", "/api/v1/bounties", "", nil, &bounties)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, bounties, 2)
	assert.Equal(t, first.ID, bounties[0].ID)
	assert.Equal(t, second.ID, bounties[1].ID)
}

func TestUpdateBounty(t *testing.T) {
	ts := newTestServer(t)

	b := ts.createBounty(t, "GOWNER")

	var updated models.Bounty
	w := ts.do(t, "PATCH", "/api/v1/bounties/"+b.ID, "GOWNER",
		map[string]any{"title": "Fix very flaky test", "reward_amount": 200}, &updated)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fix very flaky test", updated.Title)
	assert.Equal(t, int64(200), updated.RewardAmount)
	// Untouched field survives the patch
	assert.Equal(t, b.Description, updated.Description)
}

func TestUpdateBounty_NonOwnerForbidden(t *testing.T) {
	ts := newTestServer(t)

	b := ts.createBounty(t, "GOWNER")

	w := ts.do(t, "PATCH", "/api/v1/bounties/"+b.ID, "GMALLORY",
		map[string]any{"title": "mine now"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelBounty(t *testing.T) {
	ts := newTestServer(t)

	b := ts.createBounty(t, "GOWNER")

	var cancelled models.Bounty
	w := ts.do(t, "POST", "/api/v1/bounties/"+b.ID+"/cancel", "GOWNER", nil, &cancelled)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.BountyStatusCancelled, cancelled.Status)

	// Only a completed bounty blocks cancellation, so cancelling twice is fine
	w = ts.do(t, "POST", "/api/v1/bounties/"+b.ID+"/cancel", "GOWNER", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitAndListSubmissions(t *testing.T) {
	ts := newTestServer(t)

	b := ts.createBounty(t, "GOWNER")
	sub := ts.submitWork(t, "GAPPLICANT", b.ID)
	assert.Equal(t, models.SubmissionStatusPending, sub.Status)

	// First submission moved the bounty to in progress
	var got models.Bounty
	ts.do(t, "GET", "/api/v1/bounties/"+b.ID, "", nil, &got)
	assert.Equal(t, models.BountyStatusInProgress, got.Status)

	var subs []*models.Submission
	w := ts.do(t, "GET", "/api/v1/bounties/"+b.ID+"/submissions", "", nil, &subs)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.ID, subs[0].ID)
}

func TestSubmitWork_CancelledBountyConflicts(t *testing.T) {
	ts := newTestServer(t)

	b := ts.createBounty(t, "GOWNER")
	ts.do(t, "POST", "/api/v1/bounties/"+b.ID+"/cancel", "GOWNER", nil, nil)

	w := ts.do(t, "POST", "/api/v1/bounties/"+b.ID+"/submissions", "GAPPLICANT",
		map[string]any{"content": "too late"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAcceptSubmission_PaysReward(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, ts.ledger.Deposit(ctx, "GOWNER", "XLM", 500))

	b := ts.createBounty(t, "GOWNER")
	sub := ts.submitWork(t, "GAPPLICANT", b.ID)

	var accepted models.Submission
	w := ts.do(t, "POST", "/api/v1/submissions/"+sub.ID+"/accept", "GOWNER", nil, &accepted)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SubmissionStatusAccepted, accepted.Status)

	var got models.Bounty
	ts.do(t, "GET", "/api/v1/bounties/"+b.ID, "", nil, &got)
	assert.Equal(t, models.BountyStatusCompleted, got.Status)

	// Wallet routes reflect the payout
	var balance struct {
		Balance int64 `json:"balance"`
	}
	w = ts.do(t, "GET", "/api/v1/wallets/GAPPLICANT?asset=XLM", "", nil, &balance)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(100), balance.Balance)

	var transfers []*models.Transfer
	w = ts.do(t, "GET", "/api/v1/wallets/GAPPLICANT/transfers", "", nil, &transfers)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, transfers, 1)
	assert.Equal(t, int64(100), transfers[0].Amount)
}

func TestAcceptSubmission_NoFundsBadGateway(t *testing.T) {
	ts := newTestServer(t)

	b := ts.createBounty(t, "GOWNER")
	sub := ts.submitWork(t, "GAPPLICANT", b.ID)

	// Owner wallet is empty, so the reward transfer fails upstream
	w := ts.do(t, "POST", "/api/v1/submissions/"+sub.ID+"/accept", "GOWNER", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// State is unchanged
	var got models.Submission
	ts.do(t, "GET", "/api/v1/submissions/"+sub.ID, "", nil, &got)
	assert.Equal(t, models.SubmissionStatusPending, got.Status)
}

func TestAcceptSubmission_NonOwnerForbidden(t *testing.T) {
	ts := newTestServer(t)

	b := ts.createBounty(t, "GOWNER")
	sub := ts.submitWork(t, "GAPPLICANT", b.ID)

	w := ts.do(t, "POST", "/api/v1/submissions/"+sub.ID+"/accept", "GAPPLICANT", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRejectSubmission(t *testing.T) {
	ts := newTestServer(t)

	b := ts.createBounty(t, "GOWNER")
	sub := ts.submitWork(t, "GAPPLICANT", b.ID)

	var rejected models.Submission
	w := ts.do(t, "POST", "/api/v1/submissions/"+sub.ID+"/reject", "GOWNER", nil, &rejected)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SubmissionStatusRejected, rejected.Status)

	// A second reject conflicts
	w = ts.do(t, "POST", "/api/v1/submissions/"+sub.ID+"/reject", "GOWNER", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestWalletBalance_MissingAsset(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/v1/wallets/GALICE", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletRoutes_NoLedger(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	defer s.Close()

	eng := engine.New(s, engine.RealClock(), idgen.New(), ledger.New(s))
	handler := NewServer(eng, nil).Router()

	req := httptest.NewRequest("GET", "/api/v1/wallets/GALICE?asset=XLM", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/bounties", nil)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorBodyShape(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/v1/bounties/missing", "", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], fmt.Sprintf("bounty %s", "missing"))
}
