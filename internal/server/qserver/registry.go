package qserver

import (
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/session"
	"github.com/yndnr/qipc-go/pkg/cmap"
)

// Registry tracks the sessions a server is serving.
type Registry struct {
	sessions *cmap.Map[ulid.ULID, *session.Session]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: cmap.New[ulid.ULID, *session.Session]()}
}

// Add records s. A session already present is left unchanged.
func (r *Registry) Add(s *session.Session) bool {
	return r.sessions.SetIfAbsent(s.ID(), s)
}

// Remove forgets the session with id and reports whether it was present.
func (r *Registry) Remove(id ulid.ULID) bool {
	_, ok := r.sessions.Pop(id)
	return ok
}

// Get returns the session with id.
func (r *Registry) Get(id ulid.ULID) (*session.Session, bool) {
	return r.sessions.Get(id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int { return r.sessions.Count() }

// Sessions returns the info of every live session ordered by id, which is
// also the order they were opened in.
func (r *Registry) Sessions() []session.Info {
	infos := make([]session.Info, 0, r.sessions.Count())
	for _, s := range r.sessions.All() {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID.Compare(infos[j].ID) < 0
	})
	return infos
}

// ActiveSessions counts live sessions per transport.
func (r *Registry) ActiveSessions() map[string]int {
	counts := make(map[string]int)
	for _, s := range r.sessions.All() {
		counts[s.Info().Kind.String()]++
	}
	return counts
}

// Table renders the live sessions as a q table with columns id, user,
// transport, remote, local, capability and opened.
func (r *Registry) Table() (*domain.Value, error) {
	infos := r.Sessions()
	n := len(infos)
	ids := make([]string, n)
	users := make([]string, n)
	kinds := make([]string, n)
	remotes := make([]string, n)
	local := make([]bool, n)
	caps := make([]byte, n)
	opened := make([]int64, n)
	for i, info := range infos {
		ids[i] = info.ID.String()
		users[i] = info.User
		kinds[i] = info.Kind.String()
		remotes[i] = info.RemoteAddr
		local[i] = info.Local
		caps[i] = info.Capability
		opened[i] = domain.TimestampFromTime(info.OpenedAt)
	}
	return domain.NewTable(
		[]string{"id", "user", "transport", "remote", "local", "capability", "opened"},
		domain.NewSymbolList(ids, domain.AttrNone),
		domain.NewSymbolList(users, domain.AttrNone),
		domain.NewSymbolList(kinds, domain.AttrNone),
		domain.NewSymbolList(remotes, domain.AttrNone),
		domain.NewBoolList(local, domain.AttrNone),
		domain.NewByteList(caps, domain.AttrNone),
		domain.NewTimestampList(opened, domain.AttrNone),
	)
}

// CloseAll shuts down and forgets every session, returning how many there
// were.
func (r *Registry) CloseAll() int {
	closed := r.sessions.Drain()
	for _, s := range closed {
		s.Shutdown()
	}
	return len(closed)
}
