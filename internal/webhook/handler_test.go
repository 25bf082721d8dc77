package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmkelly/issuebot/internal/engine"
	"github.com/tmkelly/issuebot/internal/model"
	"github.com/tmkelly/issuebot/internal/search"
	"github.com/tmkelly/issuebot/internal/store"
)

const replyLabel = "needs-reply"

type fakeSearcher struct {
	calls   int
	results []search.SimilarIssue
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, _ model.Issue, _ int) ([]search.SimilarIssue, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeNotifier struct {
	decideCalls int
	sendCalls   int
	gotSimilar  []search.SimilarIssue
	suppress    bool
	err         error
}

func (f *fakeNotifier) ShouldSendComment(string, model.Issue, []search.SimilarIssue) bool {
	f.decideCalls++
	return !f.suppress
}

func (f *fakeNotifier) SendComment(_ context.Context, _ model.Issue, similar []search.SimilarIssue) error {
	f.sendCalls++
	f.gotSimilar = similar
	return f.err
}

type handlerFixture struct {
	handler  *Handler
	store    *store.Store
	searcher *fakeSearcher
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	searcher := &fakeSearcher{}
	notifier := &fakeNotifier{}
	h := NewHandler(
		engine.NewReconciler(s, replyLabel, nil),
		WithSearch(searcher, 10),
		WithNotifier(notifier),
		WithDeliveryLog(s, engine.NewClock(), engine.NewFixedGenerator("gen-1", "gen-2", "gen-3")),
		withNow(func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)

	return &handlerFixture{handler: h, store: s, searcher: searcher, notifier: notifier}
}

func eventBody(t *testing.T, action string, labels ...string) []byte {
	t.Helper()

	descriptors := make([]map[string]string, len(labels))
	for i, name := range labels {
		descriptors[i] = map[string]string{"name": name}
	}
	rawLabels, err := json.Marshal(descriptors)
	require.NoError(t, err)

	body := fmt.Sprintf(`{
		"action": %q,
		"issue": {
			"id": 555001,
			"number": 42,
			"title": "Widget explodes on load",
			"state": "open",
			"user": {"login": "octocat", "id": 1},
			"labels": %s,
			"assignees": [],
			"created_at": "2025-03-01T10:00:00Z",
			"updated_at": "2025-03-01T10:00:00Z"
		},
		"repository": {"full_name": "acme/widgets"}
	}`, action, rawLabels)
	return []byte(body)
}

func TestHandle_OpenedWithoutTriggerIsSkipped(t *testing.T) {
	f := newFixture(t)

	outcome := f.handler.Handle(context.Background(), eventBody(t, "opened", "bug"), "d-1")
	assert.Equal(t, StatusSkipped, outcome.Status)

	// Persisted despite the skip.
	got, found, err := f.store.GetIssue(context.Background(), 555001)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Widget explodes on load", got.Title)

	// No side-effect collaborators were touched.
	assert.Zero(t, f.searcher.calls)
	assert.Zero(t, f.notifier.sendCalls)
}

func TestHandle_LabelTransitionTriggersReplyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.searcher.results = []search.SimilarIssue{{Number: 7, Title: "Widget crash"}}

	outcome := f.handler.Handle(ctx, eventBody(t, "opened", "bug"), "d-1")
	require.Equal(t, StatusSkipped, outcome.Status)

	outcome = f.handler.Handle(ctx, eventBody(t, "labeled", "bug", replyLabel), "d-2")
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, 1, f.searcher.calls)
	assert.Equal(t, 1, f.notifier.sendCalls)
	assert.Equal(t, f.searcher.results, f.notifier.gotSimilar)
}

func TestHandle_IdenticalRedeliveryDoesNotRetrigger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	body := eventBody(t, "labeled", replyLabel)
	outcome := f.handler.Handle(ctx, body, "d-1")
	require.Equal(t, StatusSuccess, outcome.Status, "first sight inserts, label present -> reply")

	outcome = f.handler.Handle(ctx, body, "d-2")
	assert.Equal(t, StatusSkipped, outcome.Status, "label present on both sides must not retrigger")
	assert.Equal(t, 1, f.notifier.sendCalls)
}

func TestHandle_SearchFailureDegradesToEmptyResults(t *testing.T) {
	f := newFixture(t)
	f.searcher.err = errors.New("vector index offline")

	outcome := f.handler.Handle(context.Background(), eventBody(t, "opened", replyLabel), "d-1")
	assert.Equal(t, StatusSuccess, outcome.Status, "search failure after persistence is not an error outcome")

	require.Equal(t, 1, f.notifier.sendCalls)
	assert.NotNil(t, f.notifier.gotSimilar)
	assert.Empty(t, f.notifier.gotSimilar, "similar defaults to empty, never unresolved")
}

func TestHandle_NotifierFailureStillSuccess(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("403 forbidden")

	outcome := f.handler.Handle(context.Background(), eventBody(t, "opened", replyLabel), "d-1")
	assert.Equal(t, StatusSuccess, outcome.Status)
}

func TestHandle_NotifierCanSuppressComment(t *testing.T) {
	f := newFixture(t)
	f.notifier.suppress = true

	outcome := f.handler.Handle(context.Background(), eventBody(t, "opened", replyLabel), "d-1")
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, 1, f.notifier.decideCalls)
	assert.Zero(t, f.notifier.sendCalls)
}

func TestHandle_MalformedPayloadNoTableMutation(t *testing.T) {
	f := newFixture(t)

	// Issue id missing entirely.
	body := []byte(`{"action":"opened","issue":{"number":42,"state":"open"},"repository":{"full_name":"acme/widgets"}}`)
	outcome := f.handler.Handle(context.Background(), body, "d-1")
	assert.Equal(t, StatusError, outcome.Status)

	deliveries, err := f.store.ReadDeliveries(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, deliveries, "rejected events must not reach the delivery log")
	assert.Zero(t, f.searcher.calls)
	assert.Zero(t, f.notifier.sendCalls)
}

func TestHandle_DeliveryLogRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handler.Handle(ctx, eventBody(t, "opened"), "header-id-1")
	f.handler.Handle(ctx, eventBody(t, "edited"), "") // no transport id: generated

	deliveries, err := f.store.ReadDeliveries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)

	assert.Equal(t, int64(1), deliveries[0].Seq)
	assert.Equal(t, "header-id-1", deliveries[0].DeliveryID)
	assert.Equal(t, "opened", deliveries[0].Action)
	assert.Equal(t, int64(555001), deliveries[0].IssueID)

	assert.Equal(t, int64(2), deliveries[1].Seq)
	assert.Equal(t, "gen-1", deliveries[1].DeliveryID)
}
