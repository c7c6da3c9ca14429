/*
Package migrate normalizes previously-persisted payloads to the current
schema version.

PURPOSE:
  The persisted document may be absent, malformed, hand-edited, or written
  by an older release. Migration never raises a hard failure for bad data:
  every known field keeps its value when present and well-typed, gets its
  documented default otherwise, and unknown fields are dropped. An
  out-of-date payload is backed up untouched before being transformed.

VERSION HISTORY:
  v1  pre-versioning payloads (no schema field)
  v2  "children"-keyed schema with *ISO date fields
  v3  current: "people" key, plain date fields, reward type config

IDEMPOTENCE:
  Migrating an already-current, well-formed payload is a no-op transform:
  the output is semantically identical, the version is unchanged, and no
  backup is requested.

SEE ALSO:
  - ledger/types.go: the target State shape and defaults
  - store/: BackupWriter implementations (timestamped, never overwritten)
*/
package migrate

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loop/chore-ledger/ledger"
)

// CurrentVersion is the schema version this package migrates to.
const CurrentVersion = ledger.CurrentSchemaVersion

// BackupWriter persists an untouched copy of a raw payload to a side
// location before migration transforms it.
type BackupWriter interface {
	WriteBackup(raw []byte) (string, error)
}

// Result is the outcome of a migration.
type Result struct {
	State *ledger.State

	// FromVersion is the payload's declared version (0 for absent or
	// unstructured payloads, which become a fresh default state).
	FromVersion int

	// NeedsBackup is true when the payload declared an older version and
	// its raw bytes should be preserved before the transform is persisted.
	NeedsBackup bool
}

// Migrate normalizes an arbitrary raw payload to the current schema.
func Migrate(raw []byte) Result {
	var doc map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &doc) != nil || doc == nil {
		return Result{State: ledger.NewState()}
	}

	version := detectVersion(doc)
	return Result{
		State:       normalize(doc),
		FromVersion: version,
		NeedsBackup: version < CurrentVersion,
	}
}

// Load reads the persisted document, migrates it, and writes the
// pre-migration backup when one is due. The transformed document is
// persisted immediately, so a later startup sees a current payload and
// takes no further backups even when no mutation ever fired a write-back.
// It runs once, before the ledger becomes queryable.
func Load(docs ledger.DocumentStore, backups BackupWriter) (*ledger.State, error) {
	raw, err := docs.Load()
	if err != nil {
		return nil, err
	}
	res := Migrate(raw)
	if res.NeedsBackup {
		if backups != nil {
			// Best-effort: a failed backup must not block startup.
			_, _ = backups.WriteBackup(raw)
		}
		migrated, err := json.MarshalIndent(res.State, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := docs.Save(migrated); err != nil {
			return nil, err
		}
	}
	return res.State, nil
}

// detectVersion reads the declared version: the legacy "_version" number
// first (older releases stamped that key and it wins when both appear),
// then "schema", defaulting to 1 when neither is present.
func detectVersion(doc map[string]any) int {
	if v, ok := asInt(doc["_version"]); ok && v > 0 {
		return v
	}
	if v, ok := asInt(doc["schema"]); ok && v > 0 {
		return v
	}
	return 1
}

// =============================================================================
// NORMALIZATION - field-by-field defaulting with legacy aliases
// =============================================================================

func normalize(doc map[string]any) *ledger.State {
	st := ledger.NewState()
	st.People = normalizePeople(pick(doc, "people", "children"))
	st.Tasks = normalizeTasks(pick(doc, "tasks"))
	st.Completions = normalizeCompletions(pick(doc, "completions"))
	st.Adjustments = normalizeAdjustments(pick(doc, "adjustments"))
	st.Payouts = normalizePayouts(pick(doc, "payouts"))
	st.Config = normalizeConfig(doc["config"])
	st.Schema = CurrentVersion
	return st
}

func normalizePeople(v any) []ledger.Person {
	out := []ledger.Person{}
	for _, item := range asArray(v) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, ledger.Person{
			ID:     ledger.PersonID(idOrNew(obj["id"])),
			Name:   asString(pick(obj, "name")),
			Avatar: asString(pick(obj, "avatar", "avatarEmoji")),
		})
	}
	return out
}

func normalizeTasks(v any) []ledger.Task {
	out := []ledger.Task{}
	for _, item := range asArray(v) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		points, _ := asInt(obj["points"])
		if points < 0 {
			points = 0
		}
		out = append(out, ledger.Task{
			ID:         ledger.TaskID(idOrNew(obj["id"])),
			Title:      asString(obj["title"]),
			Points:     points,
			ActiveDays: normalizeWeekdays(obj["activeDays"]),
			Assignees:  normalizePersonIDs(pick(obj, "personIds", "childIds")),
		})
	}
	return out
}

func normalizeWeekdays(v any) []ledger.Weekday {
	days := []ledger.Weekday{}
	for _, item := range asArray(v) {
		if w := ledger.Weekday(asString(item)); w.Valid() {
			days = append(days, w)
		}
	}
	return days
}

func normalizePersonIDs(v any) []ledger.PersonID {
	ids := []ledger.PersonID{}
	for _, item := range asArray(v) {
		if s := asString(item); s != "" {
			ids = append(ids, ledger.PersonID(s))
		}
	}
	return ids
}

// normalizeCompletions enforces the at-most-one-record-per-key invariant:
// the first record for a (person, task, date) triple wins, duplicates are
// dropped.
func normalizeCompletions(v any) []ledger.Completion {
	type key struct {
		p ledger.PersonID
		t ledger.TaskID
		d ledger.DateKey
	}
	seen := map[key]bool{}
	out := []ledger.Completion{}
	for _, item := range asArray(v) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := ledger.Completion{
			PersonID: ledger.PersonID(asString(pick(obj, "personId", "childId"))),
			TaskID:   ledger.TaskID(asString(obj["taskId"])),
			Date:     normalizeDate(pick(obj, "date", "dateISO")),
		}
		if c.PersonID == "" || c.TaskID == "" || c.Date == "" {
			continue
		}
		k := key{c.PersonID, c.TaskID, c.Date}
		if seen[k] {
			continue
		}
		seen[k] = true
		done, ok := pick(obj, "done", "completed").(bool)
		c.Done = ok && done
		out = append(out, c)
	}
	return out
}

func normalizeAdjustments(v any) []ledger.Adjustment {
	out := []ledger.Adjustment{}
	for _, item := range asArray(v) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		personID := asString(pick(obj, "personId", "childId"))
		date := normalizeDate(pick(obj, "date", "dateISO"))
		if personID == "" || date == "" {
			continue
		}
		delta, _ := asInt(pick(obj, "delta", "deltaPoints"))
		out = append(out, ledger.Adjustment{
			ID:       ledger.AdjustmentID(idOrNew(obj["id"])),
			PersonID: ledger.PersonID(personID),
			Date:     date,
			Delta:    delta,
			Note:     asString(obj["note"]),
		})
	}
	return out
}

func normalizePayouts(v any) []ledger.Payout {
	out := []ledger.Payout{}
	for _, item := range asArray(v) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		personID := asString(pick(obj, "personId", "childId"))
		if personID == "" {
			continue
		}
		points, _ := asInt(obj["points"])
		rt := ledger.RewardType(asString(obj["rewardType"]))
		if !rt.Valid() {
			rt = ledger.DefaultRewardType
		}
		out = append(out, ledger.Payout{
			ID:         ledger.PayoutID(idOrNew(obj["id"])),
			PersonID:   ledger.PersonID(personID),
			PaidOn:     normalizeDate(pick(obj, "paidOn", "paidOnISO")),
			RangeStart: normalizeDate(pick(obj, "rangeStart", "rangeStartISO")),
			RangeEnd:   normalizeDate(pick(obj, "rangeEnd", "rangeEndISO")),
			Points:     points,
			Rate:       asDecimal(pick(obj, "rate", "rateAtPayout"), decimal.Zero),
			Value:      asDecimal(obj["value"], decimal.Zero),
			RewardType: rt,
			Note:       asString(obj["note"]),
		})
	}
	return out
}

func normalizeConfig(v any) ledger.Config {
	cfg := ledger.DefaultConfig()
	obj, ok := v.(map[string]any)
	if !ok {
		return cfg
	}

	cfg.MoneyPerPoint = asDecimal(obj["moneyPerPoint"], ledger.DefaultMoneyPerPoint)
	if mode := ledger.PayoutMode(asString(obj["payoutMode"])); mode.Valid() {
		cfg.PayoutMode = mode
	}
	if rt := ledger.RewardType(asString(obj["rewardType"])); rt.Valid() {
		cfg.RewardType = rt
	}
	cfg.MinutesPerPoint = asDecimal(obj["minutesPerPoint"], ledger.DefaultMinutesPerPoint)
	if name := asString(obj["customRewardName"]); name != "" {
		cfg.CustomRewardName = name
	}
	if ppr, ok := asInt(obj["pointsPerReward"]); ok && ppr > 0 {
		cfg.PointsPerReward = ppr
	}
	if pin := asString(obj["pin"]); pin != "" {
		cfg.PIN = pin
	}
	cfg.PINHint = asString(obj["pinHint"])
	cfg.RecoveryQuestion = asString(pick(obj, "recoveryQuestion", "recoveryQ"))
	cfg.RecoveryAnswer = asString(pick(obj, "recoveryAnswer", "recoveryA"))
	return cfg
}

func normalizeDate(v any) ledger.DateKey {
	d, err := ledger.ParseDateKey(asString(v))
	if err != nil {
		return ""
	}
	return d
}

// =============================================================================
// COERCION HELPERS - tolerate any JSON shape, never panic
// =============================================================================

// pick returns the first present key, letting v3 names shadow their
// legacy aliases.
func pick(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asArray(v any) []any {
	a, _ := v.([]any)
	return a
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// asDecimal accepts JSON numbers and decimal-as-string (our own export
// format) interchangeably.
func asDecimal(v any, fallback decimal.Decimal) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		if d, err := decimal.NewFromString(n); err == nil {
			return d
		}
	}
	return fallback
}

func idOrNew(v any) string {
	if s := asString(v); s != "" {
		return s
	}
	return uuid.NewString()
}
