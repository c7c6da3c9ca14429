/*
handlers.go - HTTP API handlers for the chore ledger

PURPOSE:
  Exposes the ledger's commands and queries over REST. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    GET    /api/auth/status            PIN hint and recovery question
    POST   /api/auth/unlock            Mint a session token
    POST   /api/auth/relock            End the session
    POST   /api/auth/recover           Reset PIN via recovery answer
    POST   /api/auth/pin               Change PIN (guarded)

  People:
    GET    /api/people                 List people
    POST   /api/people                 Create person (guarded)
    PUT    /api/people/{id}            Update person (guarded)
    DELETE /api/people/{id}            Delete person (guarded)
    GET    /api/people/{id}/board      Day board (due tasks + star flag)
    GET    /api/people/{id}/stars      Star days over a range
    GET    /api/people/{id}/streaks    Streak awards over a range
    GET    /api/people/{id}/adjustments Adjustment log over a range
    GET    /api/people/{id}/payouts    Payout history
    GET    /api/people/{id}/summary    Unpaid balance over a range

  Tasks:
    GET    /api/tasks                  List tasks
    POST   /api/tasks                  Create task (guarded)
    PUT    /api/tasks/{id}             Update task (guarded)
    DELETE /api/tasks/{id}             Delete task (guarded)

  Bookkeeping (guarded):
    POST   /api/adjustments            Append a manual point delta
    POST   /api/payouts                Settle a payout
    PUT    /api/config/rate            Change money-per-point
    PUT    /api/config/mode            Change payout mode
    PUT    /api/config/reward          Change reward type settings
    POST   /api/state/import           Replace the document

  Open:
    POST   /api/completions/toggle     Flip a completion (kid-facing)
    GET    /api/config                 Client-visible config
    GET    /api/reports/summary        Summary for every person
    GET    /api/state/export           Full document download

REQUEST FLOW:
  1. Parse HTTP request (path params, query params, JSON body)
  2. Call domain logic (ledger, gate)
  3. Serialize response
  4. Map domain errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing/expired session, wrong PIN or recovery answer
  - 404: Unknown person or task
  - 409: Conflict (person has history, nothing to pay)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/loop/chore-ledger/ledger"
	"github.com/loop/chore-ledger/migrate"
	"github.com/loop/chore-ledger/pingate"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *ledger.Ledger
	Gate   *pingate.Gate

	// Now supplies "today" for defaulted date params and payout stamps.
	Now func() ledger.DateKey
}

// NewHandler creates a handler over the ledger and its PIN gate.
func NewHandler(l *ledger.Ledger, gate *pingate.Gate) *Handler {
	return &Handler{Ledger: l, Gate: gate, Now: ledger.Today}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// AuthStatus returns the lock-screen prerequisites.
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AuthStatusDTO{
		PINHint:          h.Gate.Hint(),
		RecoveryQuestion: h.Gate.RecoveryQuestion(),
	})
}

// Unlock checks the PIN and returns a session token.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tok, err := h.Gate.Unlock(req.PIN)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unlock failed", err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// Relock ends the session regardless of token validity.
func (h *Handler) Relock(w http.ResponseWriter, r *http.Request) {
	h.Gate.Relock()
	w.WriteHeader(http.StatusNoContent)
}

// Recover resets the PIN via the recovery answer. No session is opened;
// the client unlocks with the new PIN afterwards.
func (h *Handler) Recover(w http.ResponseWriter, r *http.Request) {
	var req RecoverRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Gate.Recover(req.Answer, req.NewPIN); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePIN replaces the credential fields. Runs behind requireSession,
// and the gate re-checks the token itself.
func (h *Handler) ChangePIN(w http.ResponseWriter, r *http.Request) {
	var req ChangePINRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.Gate.ChangePIN(r.Header.Get(SessionHeader),
		req.PIN, req.Hint, req.RecoveryQuestion, req.RecoveryAnswer)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PEOPLE HANDLERS
// =============================================================================

func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.People())
}

func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req PersonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.Ledger.AddPerson(req.Name, req.Avatar)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	var req PersonPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.Ledger.UpdatePerson(personParam(r), ledger.PersonPatch{
		Name:   req.Name,
		Avatar: req.Avatar,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.RemovePerson(personParam(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TASK HANDLERS
// =============================================================================

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Tasks())
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := h.Ledger.AddTask(req.Title, req.Points,
		toWeekdays(req.ActiveDays), toPersonIDs(req.PersonIDs))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := ledger.TaskPatch{Title: req.Title, Points: req.Points}
	if req.ActiveDays != nil {
		days := toWeekdays(*req.ActiveDays)
		patch.ActiveDays = &days
	}
	if req.PersonIDs != nil {
		ids := toPersonIDs(*req.PersonIDs)
		patch.Assignees = &ids
	}
	t, err := h.Ledger.UpdateTask(ledger.TaskID(chi.URLParam(r, "id")), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.RemoveTask(ledger.TaskID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BOARD & COMPLETIONS
// =============================================================================

// GetBoard returns the person's due tasks for one day. ?date= defaults
// to today.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	personID := personParam(r)
	date, ok := h.dateParam(w, r, "date")
	if !ok {
		return
	}
	entries, star, err := h.Ledger.Board(personID, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBoardDTO(personID, date, entries, star))
}

// ToggleCompletion flips a completion and reports the new state.
func (h *Handler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	done, err := h.Ledger.ToggleCompletion(
		ledger.PersonID(req.PersonID), ledger.TaskID(req.TaskID), ledger.DateKey(req.Date))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleDTO{
		PersonID: req.PersonID, TaskID: req.TaskID, Date: req.Date, Done: done,
	})
}

// GetStarDays returns star days over ?from=..&to=.. for the calendar.
func (h *Handler) GetStarDays(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	stars, err := h.Ledger.StarDays(personParam(r), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if stars == nil {
		stars = []ledger.DateKey{}
	}
	writeJSON(w, http.StatusOK, stars)
}

// =============================================================================
// ADJUSTMENTS & PAYOUTS
// =============================================================================

func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.Ledger.AddAdjustment(
		ledger.PersonID(req.PersonID), ledger.DateKey(req.Date), req.Delta, req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdjustmentDTOs([]ledger.Adjustment{a})[0])
}

func (h *Handler) GetAdjustments(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	adjs, err := h.Ledger.AdjustmentLog(personParam(r), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdjustmentDTOs(adjs))
}

// SettlePayout settles the requested range, stamping paidOn with the
// handler's clock.
func (h *Handler) SettlePayout(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.Ledger.SettlePayout(
		ledger.PersonID(req.PersonID),
		ledger.DateKey(req.RangeStart),
		ledger.DateKey(req.RangeEnd),
		h.Now(),
		req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayoutDTO(p))
}

func (h *Handler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	payouts, err := h.Ledger.PayoutHistory(personParam(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayoutDTOs(payouts))
}

// =============================================================================
// REPORTS
// =============================================================================

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	preview, err := h.Ledger.Summary(personParam(r), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(preview))
}

func (h *Handler) GetSummaryAll(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	previews, err := h.Ledger.SummaryAll(from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]SummaryDTO, len(previews))
	for i, p := range previews {
		dtos[i] = toSummaryDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}
	awards, err := h.Ledger.StreakLog(personParam(r), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStreakAwardDTOs(awards))
}

// =============================================================================
// CONFIG HANDLERS
// =============================================================================

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toConfigDTO(h.Ledger.Config()))
}

// SetRate changes money-per-point. Existing payouts keep their frozen
// rate; only future settlements price at the new one.
func (h *Handler) SetRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rate, err := decimal.NewFromString(req.MoneyPerPoint)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid moneyPerPoint", err)
		return
	}
	if err := h.Ledger.SetRate(rate); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigDTO(h.Ledger.Config()))
}

func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Ledger.SetPayoutMode(ledger.PayoutMode(req.PayoutMode)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigDTO(h.Ledger.Config()))
}

func (h *Handler) SetReward(w http.ResponseWriter, r *http.Request) {
	var req RewardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Ledger.SetRewardType(ledger.RewardType(req.RewardType)); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.MinutesPerPoint != "" {
		minutes, err := decimal.NewFromString(req.MinutesPerPoint)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid minutesPerPoint", err)
			return
		}
		if err := h.Ledger.SetMinutesPerPoint(minutes); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if req.CustomRewardName != "" || req.PointsPerReward > 0 {
		cfg := h.Ledger.Config()
		name := req.CustomRewardName
		if name == "" {
			name = cfg.CustomRewardName
		}
		ppr := req.PointsPerReward
		if ppr <= 0 {
			ppr = cfg.PointsPerReward
		}
		if err := h.Ledger.SetCustomReward(name, ppr); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toConfigDTO(h.Ledger.Config()))
}

// =============================================================================
// STATE EXPORT / IMPORT
// =============================================================================

// ExportState downloads the full document, stamped at the current
// schema version.
func (h *Handler) ExportState(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Ledger.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Export failed", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="loop-export.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// ImportState replaces the document with an uploaded payload. The
// payload runs through the same normalization as a persisted document,
// so old exports and hand-edited files both land on the current schema.
// A payload that is not a JSON object is rejected outright: unlike the
// startup load, a failed import must leave the current records untouched
// rather than fall back to a fresh default state.
func (h *Handler) ImportState(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		writeError(w, http.StatusBadRequest, "Invalid document", err)
		return
	}
	res := migrate.Migrate(raw)
	h.Ledger.ReplaceState(res.State)
	writeJSON(w, http.StatusOK, map[string]any{
		"fromVersion": res.FromVersion,
		"people":      len(res.State.People),
		"tasks":       len(res.State.Tasks),
	})
}

// =============================================================================
// PARAM & RESPONSE HELPERS
// =============================================================================

func personParam(r *http.Request) ledger.PersonID {
	return ledger.PersonID(chi.URLParam(r, "id"))
}

// dateParam reads a single ?name= date query param, defaulting to today.
func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request, name string) (ledger.DateKey, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return h.Now(), true
	}
	d, err := ledger.ParseDateKey(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name, err)
		return "", false
	}
	return d, true
}

// rangeParams reads ?from=..&to=..; both default to today.
func (h *Handler) rangeParams(w http.ResponseWriter, r *http.Request) (ledger.DateKey, ledger.DateKey, bool) {
	from, ok := h.dateParam(w, r, "from")
	if !ok {
		return "", "", false
	}
	to, ok := h.dateParam(w, r, "to")
	if !ok {
		return "", "", false
	}
	return from, to, true
}

func toWeekdays(days []string) []ledger.Weekday {
	out := make([]ledger.Weekday, len(days))
	for i, d := range days {
		out[i] = ledger.Weekday(d)
	}
	return out
}

func toPersonIDs(ids []string) []ledger.PersonID {
	out := make([]ledger.PersonID, len(ids))
	for i, id := range ids {
		out[i] = ledger.PersonID(id)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Error = msg + ": " + err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger and gate errors to status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pingate.ErrNotAuthorized),
		errors.Is(err, pingate.ErrWrongPIN),
		errors.Is(err, pingate.ErrWrongAnswer):
		writeError(w, http.StatusUnauthorized, "Not authorized", err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, ledger.ErrPersonHasHistory),
		errors.Is(err, ledger.ErrNothingToPay):
		writeError(w, http.StatusConflict, "Conflict", err)
	case ledger.IsValidation(err), errors.Is(err, pingate.ErrNoRecovery):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// decodeBody parses the JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
