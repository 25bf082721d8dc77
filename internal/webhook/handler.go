package webhook

import (
	"context"
	"log/slog"
	"time"

	"github.com/tmkelly/issuebot/internal/engine"
	"github.com/tmkelly/issuebot/internal/metrics"
	"github.com/tmkelly/issuebot/internal/model"
	"github.com/tmkelly/issuebot/internal/search"
	"github.com/tmkelly/issuebot/internal/store"
)

// OutcomeStatus classifies the result of handling one event.
type OutcomeStatus string

const (
	// StatusSuccess means the event was persisted and any indicated
	// side effects ran (possibly degraded).
	StatusSuccess OutcomeStatus = "success"
	// StatusSkipped means the event was persisted but the label rule
	// did not indicate a reply.
	StatusSkipped OutcomeStatus = "skipped"
	// StatusError means mapping or persistence failed.
	StatusError OutcomeStatus = "error"
)

// Outcome is the handler's result record, mapped by the transport to
// its own response convention.
type Outcome struct {
	Status  OutcomeStatus `json:"status"`
	Message string        `json:"message"`
}

// Reconciler persists an event and returns the should-reply decision.
// Implemented by *engine.Reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context, issue model.Issue, action string) (bool, error)
}

// Searcher is the similarity-search collaborator.
type Searcher interface {
	Search(ctx context.Context, issue model.Issue, limitPerField int) ([]search.SimilarIssue, error)
}

// Notifier decides on and posts the reply comment.
type Notifier interface {
	ShouldSendComment(action string, issue model.Issue, similar []search.SimilarIssue) bool
	SendComment(ctx context.Context, issue model.Issue, similar []search.SimilarIssue) error
}

// DeliveryLog records accepted events. Implemented by *store.Store.
type DeliveryLog interface {
	AppendDelivery(ctx context.Context, d store.Delivery) (bool, error)
}

// Handler is the top-level entry point invoked per inbound event. It
// holds its collaborators as fields - constructed once at process
// start and handed to the transport layer, no ambient globals.
type Handler struct {
	recon    Reconciler
	searcher Searcher
	notifier Notifier

	deliveries  DeliveryLog
	clock       *engine.Clock
	deliveryIDs engine.DeliveryIDGenerator

	limitPerField int
	log           *slog.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithSearch wires the similarity-search collaborator.
func WithSearch(s Searcher, limitPerField int) Option {
	return func(h *Handler) {
		h.searcher = s
		h.limitPerField = limitPerField
	}
}

// WithNotifier wires the comment-posting collaborator.
func WithNotifier(n Notifier) Option {
	return func(h *Handler) {
		h.notifier = n
	}
}

// WithDeliveryLog wires the append-only delivery log. The clock stamps
// entries; ids fills in a delivery id when the transport supplied none.
func WithDeliveryLog(log DeliveryLog, clock *engine.Clock, ids engine.DeliveryIDGenerator) Option {
	return func(h *Handler) {
		h.deliveries = log
		h.clock = clock
		h.deliveryIDs = ids
	}
}

// WithLogger sets the handler's logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		h.log = log
	}
}

// WithMetrics wires the ingestion counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// withNow overrides the wall clock. Tests only.
func withNow(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// NewHandler creates a Handler around a reconciler. Search, notifier,
// delivery log and metrics are optional; a handler without them still
// persists events correctly.
func NewHandler(recon Reconciler, opts ...Option) *Handler {
	h := &Handler{
		recon:         recon,
		limitPerField: 10,
		log:           slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one inbound "issues" event.
//
// Sequence: map payload, reconcile, then - only when the label rule
// indicated a reply - similarity search and comment posting. Mapping
// and persistence failures produce an error outcome. Failures in the
// search/comment path never do: by then the event is durably applied,
// so they are logged and the outcome stays success with reduced side
// effects.
func (h *Handler) Handle(ctx context.Context, body []byte, deliveryID string) Outcome {
	payload, err := ParsePayload(body)
	if err != nil {
		return h.errorOutcome("unknown", err)
	}

	issue, err := MapIssue(payload)
	if err != nil {
		return h.errorOutcome(payload.Action, err)
	}

	action := payload.Action
	h.log.Info("received issues event",
		"action", action,
		"issue", issue.Number,
		"repository", issue.Repository,
		"author", issue.Author,
		"state", issue.State,
		"labels", labelNames(issue.Labels),
	)

	shouldReply, err := h.recon.Reconcile(ctx, issue, action)
	if err != nil {
		return h.errorOutcome(action, err)
	}

	h.appendDelivery(ctx, deliveryID, action, issue, body)

	if !shouldReply {
		h.log.Info("skipping reply", "issue", issue.Number, "action", action)
		h.metrics.ObserveEvent(action, string(StatusSkipped))
		return Outcome{Status: StatusSkipped, Message: "issue skipped (not marked for reply)"}
	}
	h.metrics.ObserveReply()

	similar := h.searchSimilar(ctx, issue)
	h.notifyReply(ctx, action, issue, similar)

	h.metrics.ObserveEvent(action, string(StatusSuccess))
	return Outcome{Status: StatusSuccess, Message: "issues webhook processed"}
}

// searchSimilar runs the best-effort similarity search. Failures are
// logged and yield an empty result set - never an unresolved one.
func (h *Handler) searchSimilar(ctx context.Context, issue model.Issue) []search.SimilarIssue {
	if h.searcher == nil {
		return []search.SimilarIssue{}
	}

	similar, err := h.searcher.Search(ctx, issue, h.limitPerField)
	if err != nil {
		h.log.Error("similarity search failed, continuing without results",
			"issue", issue.Number, "error", engine.NewEnrichmentError(issue.ID, err))
		return []search.SimilarIssue{}
	}

	h.log.Info("similarity search completed", "issue", issue.Number, "matches", len(similar))
	return similar
}

// notifyReply posts the reply comment when the notifier agrees.
// Failures are logged; the event already counts as processed.
func (h *Handler) notifyReply(ctx context.Context, action string, issue model.Issue, similar []search.SimilarIssue) {
	if h.notifier == nil {
		return
	}
	if !h.notifier.ShouldSendComment(action, issue, similar) {
		h.log.Info("comment suppressed by notifier", "issue", issue.Number, "action", action)
		return
	}

	if err := h.notifier.SendComment(ctx, issue, similar); err != nil {
		h.log.Error("sending comment failed",
			"issue", issue.Number, "error", engine.NewNotificationError(issue.ID, err))
		return
	}
	h.metrics.ObserveCommentSent()
	h.log.Info("reply comment sent", "issue", issue.Number)
}

// appendDelivery records the event in the delivery log. The canonical
// record is already persisted at this point, so a log failure is
// reported but does not change the outcome.
func (h *Handler) appendDelivery(ctx context.Context, deliveryID, action string, issue model.Issue, body []byte) {
	if h.deliveries == nil {
		return
	}
	if deliveryID == "" {
		deliveryID = h.deliveryIDs.Generate()
	}

	_, err := h.deliveries.AppendDelivery(ctx, store.Delivery{
		Seq:        h.clock.Next(),
		DeliveryID: deliveryID,
		Action:     action,
		IssueID:    issue.ID,
		ReceivedAt: h.now(),
		Payload:    string(body),
	})
	if err != nil {
		h.log.Error("appending delivery log entry failed", "delivery", deliveryID, "error", err)
	}
}

func (h *Handler) errorOutcome(action string, err error) Outcome {
	h.log.Error("error processing issues webhook", "action", action, "error", err)
	h.metrics.ObserveEvent(action, string(StatusError))
	return Outcome{Status: StatusError, Message: err.Error()}
}

func labelNames(labels []model.Label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}
