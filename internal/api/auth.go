package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/door-core/internal/auth"
)

// ticketLifetime is how long a WebSocket ticket is valid.
const ticketLifetime = 60 * time.Second

// loginRequest carries the credentials posted to /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse returns the signed token plus enough metadata for the
// client to schedule its refresh.
type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	Role        auth.Role `json:"role"`
}

// ticketStore tracks outstanding WebSocket connection tickets.
// Tickets are single-use, expire after ticketLifetime, and carry the
// identity of the user who requested them so the WebSocket client
// inherits the right role.
type ticketStore struct {
	mu      sync.Mutex
	tickets map[string]ticketGrant
}

type ticketGrant struct {
	username string
	role     auth.Role
	deadline time.Time
}

func newTicketStore() *ticketStore {
	return &ticketStore{tickets: make(map[string]ticketGrant)}
}

// issue registers a ticket for the given identity.
func (t *ticketStore) issue(ticket, username string, role auth.Role, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tickets[ticket] = ticketGrant{
		username: username,
		role:     role,
		deadline: time.Now().Add(ttl),
	}
}

// consume validates a ticket and removes it (single-use).
// Returns the identity it was issued to and whether it was valid.
func (t *ticketStore) consume(ticket string) (ticketGrant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	grant, ok := t.tickets[ticket]
	if !ok {
		return ticketGrant{}, false
	}

	// Deleted whether expired or not; a ticket gets one attempt.
	delete(t.tickets, ticket)

	if time.Now().After(grant.deadline) {
		return ticketGrant{}, false
	}
	return grant, true
}

// prune removes expired tickets from the store.
func (t *ticketStore) prune() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for ticket, grant := range t.tickets {
		if now.After(grant.deadline) {
			delete(t.tickets, ticket)
		}
	}
}

// handleLogin authenticates a user against the configured accounts and
// returns a signed JWT access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "malformed JSON body")
		return
	}

	// Reject malformed usernames before doing any argon2 work.
	if !auth.IsValidUsername(req.Username) {
		respondUnauthorized(w, "invalid credentials")
		return
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		s.logger.Warn("login failed",
			"username", req.Username,
			"remote", r.RemoteAddr,
		)
		respondUnauthorized(w, "invalid credentials")
		return
	}

	ttl := s.secCfg.JWT.AccessTokenTTL
	if ttl == 0 {
		ttl = 15 // minutes
	}

	token, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		respondInternalError(w, "token generation failed")
		return
	}

	s.logger.Info("login succeeded",
		"username", user.Username,
		"role", user.Role,
	)

	respondJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 60, // minutes to seconds
		Role:        user.Role,
	})
}

// handleWSTicket trades a valid bearer token for a single-use ticket,
// so the browser WebSocket API (which cannot set headers) never puts
// the JWT in a URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		respondUnauthorized(w, "authentication required")
		return
	}

	ticket, err := auth.GenerateTicket()
	if err != nil {
		respondInternalError(w, "ticket generation failed")
		return
	}

	s.tickets.issue(ticket, claims.Subject, claims.Role, ticketLifetime)

	respondJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(ticketLifetime.Seconds()),
	})
}

// sweepTicketsLoop sweeps expired tickets until ctx is cancelled, so
// abandoned tickets cannot pile up.
func (s *Server) sweepTicketsLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketLifetime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickets.prune()
		}
	}
}
