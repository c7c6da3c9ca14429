/*
handlers_test.go - HTTP tests for the API surface

Exercises the routes through the real router, so the session middleware,
error mapping, and JSON contracts are all covered together.
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loop/chore-ledger/api"
	"github.com/loop/chore-ledger/ledger"
	"github.com/loop/chore-ledger/pingate"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	monday = ledger.DateKey("2025-03-10")
	friday = ledger.DateKey("2025-03-14")
	alexID = ledger.PersonID("alex")
	bedID  = ledger.TaskID("bed")
)

// newTestServer wires a router over an in-memory ledger holding one
// person and one every-day task worth 2 points. The handler clock is
// pinned to the Friday of the test week.
func newTestServer(t *testing.T) (*httptest.Server, *ledger.Ledger) {
	t.Helper()

	s := ledger.NewState()
	s.People = []ledger.Person{{ID: alexID, Name: "Alex", Avatar: "🦊"}}
	s.Tasks = []ledger.Task{{
		ID: bedID, Title: "Make bed", Points: 2,
		ActiveDays: ledger.AllWeekdays, Assignees: []ledger.PersonID{alexID},
	}}
	l := ledger.New(s, nil)

	h := api.NewHandler(l, pingate.New(l))
	h.Now = func() ledger.DateKey { return friday }

	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, l
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(api.SessionHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// unlock mints a session token through the API.
func unlock(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/unlock", "", api.UnlockRequest{PIN: ledger.DefaultPIN})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[pingate.Token](t, resp).Value
}

// =============================================================================
// OPEN ROUTES
// =============================================================================

func TestToggleCompletion_OpenRoute(t *testing.T) {
	// GIVEN: The kid-facing board
	// WHEN: Toggling a completion without any session token
	// THEN: The flip succeeds and the board reflects it

	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/completions/toggle", "", api.ToggleRequest{
		PersonID: string(alexID), TaskID: string(bedID), Date: string(monday),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[api.ToggleDTO](t, resp).Done)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/people/alex/board?date="+string(monday), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board := decode[api.BoardDTO](t, resp)
	require.Len(t, board.Entries, 1)
	assert.True(t, board.Entries[0].Done)
	assert.True(t, board.StarDay, "the only due task is done")
}

func TestGetConfig_NeverLeaksPIN(t *testing.T) {
	// GIVEN: The stored config with its PIN
	// WHEN: Reading /api/config
	// THEN: Only the hint is visible, never the PIN or recovery answer

	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/config", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw := decode[map[string]any](t, resp)
	assert.NotContains(t, raw, "pin")
	assert.NotContains(t, raw, "recoveryAnswer")
	assert.Equal(t, "0.1", raw["moneyPerPoint"])
}

func TestBoard_UnknownPersonIs404(t *testing.T) {
	// GIVEN: An unknown person id
	// WHEN: Reading their board
	// THEN: 404 with the standard error payload

	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/people/ghost/board", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decode[api.ErrorResponse](t, resp).Error)
}

// =============================================================================
// GUARDED ROUTES
// =============================================================================

func TestGuardedRoutes_RejectMissingSession(t *testing.T) {
	// GIVEN: No session token
	// WHEN: Hitting guarded routes
	// THEN: 401 before any handler logic runs

	srv, l := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/payouts", "", api.SettleRequest{
		PersonID: string(alexID), RangeStart: string(monday), RangeEnd: string(friday),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/adjustments", "", api.AdjustmentRequest{
		PersonID: string(alexID), Date: string(monday), Delta: 5,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	payouts, err := l.PayoutHistory(alexID)
	require.NoError(t, err)
	assert.Empty(t, payouts, "nothing was settled")
}

func TestUnlock_WrongPIN(t *testing.T) {
	// GIVEN: A wrong PIN
	// WHEN: Unlocking
	// THEN: 401

	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/unlock", "", api.UnlockRequest{PIN: "0000"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSettlePayout_FullFlow(t *testing.T) {
	// GIVEN: A fully completed Mon-Fri and an unlocked session
	// WHEN: Settling the week
	// THEN: 201 with the frozen payout; settling again conflicts

	srv, l := newTestServer(t)
	for _, d := range ledger.DateRange(monday, friday) {
		_, err := l.ToggleCompletion(alexID, bedID, d)
		require.NoError(t, err)
	}
	token := unlock(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/payouts", token, api.SettleRequest{
		PersonID: string(alexID), RangeStart: string(monday), RangeEnd: string(friday), Note: "week 11",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	payout := decode[api.PayoutDTO](t, resp)
	assert.Equal(t, 10, payout.Points)
	assert.Equal(t, "0.1", payout.Rate)
	assert.Equal(t, "1", payout.Value)
	assert.Equal(t, string(friday), payout.PaidOn, "stamped by the handler clock")

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/payouts", token, api.SettleRequest{
		PersonID: string(alexID), RangeStart: string(monday), RangeEnd: string(friday),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeletePerson_HistoryConflict(t *testing.T) {
	// GIVEN: A person with a completion on record
	// WHEN: Deleting them through the API
	// THEN: 409

	srv, l := newTestServer(t)
	_, err := l.ToggleCompletion(alexID, bedID, monday)
	require.NoError(t, err)
	token := unlock(t, srv)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/people/alex", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateTask_ValidationMapsTo400(t *testing.T) {
	// GIVEN: A task with an empty title
	// WHEN: Creating it
	// THEN: 400

	srv, _ := newTestServer(t)
	token := unlock(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tasks", token, api.TaskRequest{
		Title: "", Points: 1, ActiveDays: []string{"Mon"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetRate_GuardedAndApplied(t *testing.T) {
	// GIVEN: An unlocked session
	// WHEN: Changing the rate
	// THEN: The config reflects it; future summaries price at the new rate

	srv, _ := newTestServer(t)
	token := unlock(t, srv)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/config/rate", token, api.RateRequest{MoneyPerPoint: "0.5"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0.5", decode[api.ConfigDTO](t, resp).MoneyPerPoint)
}

// =============================================================================
// REPORTS & STATE
// =============================================================================

func TestSummary_ReportsBreakdown(t *testing.T) {
	// GIVEN: Two completed days and a manual adjustment
	// WHEN: Reading the per-person summary over the week
	// THEN: Components and net line up

	srv, l := newTestServer(t)
	_, err := l.ToggleCompletion(alexID, bedID, monday)
	require.NoError(t, err)
	_, err = l.ToggleCompletion(alexID, bedID, monday.Next())
	require.NoError(t, err)
	_, err = l.AddAdjustment(alexID, monday, 3, "bonus")
	require.NoError(t, err)

	url := srv.URL + "/api/people/alex/summary?from=" + string(monday) + "&to=" + string(friday)
	resp := doJSON(t, http.MethodGet, url, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sum := decode[api.SummaryDTO](t, resp)
	assert.Equal(t, 4, sum.TaskPoints)
	assert.Equal(t, 3, sum.AdjustmentPoints)
	assert.Equal(t, 7, sum.Net)
}

func TestImportState_RejectsBadPayloads(t *testing.T) {
	// GIVEN: A ledger with history and an unlocked session
	// WHEN: Importing payloads that are not JSON objects
	// THEN: 400 every time and the existing records survive untouched

	srv, l := newTestServer(t)
	_, err := l.ToggleCompletion(alexID, bedID, monday)
	require.NoError(t, err)
	token := unlock(t, srv)

	for _, payload := range []string{"this is not json", "[1,2,3]", "null", `"a string"`} {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/state/import",
			bytes.NewReader([]byte(payload)))
		require.NoError(t, err)
		req.Header.Set(api.SessionHeader, token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "payload %q", payload)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/people/alex/board?date="+string(monday), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board := decode[api.BoardDTO](t, resp)
	require.Len(t, board.Entries, 1)
	assert.True(t, board.Entries[0].Done, "a failed import must not wipe history")
}

func TestExportImport_RoundTrip(t *testing.T) {
	// GIVEN: A document exported from one server
	// WHEN: Importing it into another
	// THEN: The second server serves the same people and tasks

	srv, l := newTestServer(t)
	_, err := l.ToggleCompletion(alexID, bedID, monday)
	require.NoError(t, err)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/state/export", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var exported bytes.Buffer
	_, err = exported.ReadFrom(resp.Body)
	require.NoError(t, err)

	other, _ := newTestServer(t)
	token := unlock(t, other)
	req, err := http.NewRequest(http.MethodPost, other.URL+"/api/state/import", bytes.NewReader(exported.Bytes()))
	require.NoError(t, err)
	req.Header.Set(api.SessionHeader, token)
	importResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer importResp.Body.Close()
	require.Equal(t, http.StatusOK, importResp.StatusCode)

	resp = doJSON(t, http.MethodGet, other.URL+"/api/people/alex/board?date="+string(monday), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board := decode[api.BoardDTO](t, resp)
	require.Len(t, board.Entries, 1)
	assert.True(t, board.Entries[0].Done, "imported completion survives")
}
