package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
)

// Transport header names used by GitHub webhook deliveries.
const (
	headerEvent     = "X-GitHub-Event"
	headerDelivery  = "X-GitHub-Delivery"
	headerSignature = "X-Hub-Signature-256"
)

// maxBodyBytes caps webhook request bodies. GitHub's own limit is
// 25 MB; anything near that for an issues event is garbage.
const maxBodyBytes = 1 << 20

// NewServer wraps a handler with the HTTP transport glue: signature
// verification, event-type routing and outcome-to-status mapping. The
// Handler itself stays transport-agnostic. secret is the shared HMAC
// secret; an empty secret disables verification (local development
// only).
func NewServer(h *Handler, secret string) http.Handler {
	return &webhookServer{handler: h, secret: []byte(secret)}
}

type webhookServer struct {
	handler *Handler
	secret  []byte
}

func (s *webhookServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, Outcome{Status: StatusError, Message: "method not allowed"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Outcome{Status: StatusError, Message: "reading request body failed"})
		return
	}

	if !s.verifySignature(body, r.Header.Get(headerSignature)) {
		writeJSON(w, http.StatusUnauthorized, Outcome{Status: StatusError, Message: "signature verification failed"})
		return
	}

	// Only issue events reach the core; everything else (pings,
	// stars, pushes) is acknowledged and dropped.
	if event := r.Header.Get(headerEvent); event != "issues" {
		writeJSON(w, http.StatusOK, Outcome{Status: StatusSkipped, Message: "event type ignored"})
		return
	}

	outcome := s.handler.Handle(r.Context(), body, r.Header.Get(headerDelivery))

	status := http.StatusOK
	if outcome.Status == StatusError {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, outcome)
}

// verifySignature checks the HMAC-SHA256 payload signature. With no
// configured secret, verification is skipped.
func (s *webhookServer) verifySignature(body []byte, header string) bool {
	if len(s.secret) == 0 {
		return true
	}

	const prefix = "sha256="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	got, err := hex.DecodeString(header[len(prefix):])
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func writeJSON(w http.ResponseWriter, status int, outcome Outcome) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(outcome)
}
