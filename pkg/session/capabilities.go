package session

import (
	"net/url"
	"sync"
)

// LoginPath is where unauthenticated users are sent before processing.
const LoginPath = "/login"

// Capabilities are the caller's permissions as reported by the auth layer.
type Capabilities struct {
	Authenticated bool `json:"authenticated"`
	Admin         bool `json:"admin"`
	CanGenerate   bool `json:"canGenerate"`
}

// Locked reports whether the generate action must be disabled.
func (c Capabilities) Locked() bool {
	return !c.CanGenerate && !c.Admin
}

// Redirect replaces the confirm-and-process action when it is not allowed.
type Redirect struct {
	Location string `json:"location"`
	Reason   string `json:"reason"`
}

// RedirectFor returns where the caller must go instead of processing
// templateID, or false when processing is allowed.
func (c Capabilities) RedirectFor(templateID string) (Redirect, bool) {
	detail := "/templates/" + url.PathEscape(templateID)
	if !c.Authenticated {
		return Redirect{
			Location: LoginPath + "?next=" + url.QueryEscape(detail),
			Reason:   "login",
		}, true
	}
	if c.Locked() {
		return Redirect{Location: detail + "?quota=exceeded", Reason: "quota"}, true
	}
	return Redirect{}, false
}

// Ticket identifies one async request against a session key.
type Ticket struct {
	key string
	gen uint64
}

// Relevance discards async results that arrive after the session moved on
// to another key or started a newer request.
type Relevance struct {
	mu  sync.Mutex
	key string
	gen uint64
}

// Begin starts a new request for key and invalidates earlier tickets.
func (r *Relevance) Begin(key string) Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.key = key
	r.gen++
	return Ticket{key: key, gen: r.gen}
}

// Valid reports whether t is still the latest request.
func (r *Relevance) Valid(t Ticket) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return t.key == r.key && t.gen == r.gen
}
