package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Route describes the canned response of one option source path.
type Route struct {
	Status int
	// Body is written verbatim. Use Values to build a well formed payload.
	Body string
	// Hold, when set, blocks the response until the channel is closed.
	Hold <-chan struct{}
}

// OptionServer serves option payloads keyed by path and counts the requests
// it receives per path.
type OptionServer struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]Route
	hits   map[string]int
}

// NewOptionServer starts a server closed automatically when the test ends.
// Unknown paths answer 404.
func NewOptionServer(t *testing.T, routes map[string]Route) *OptionServer {
	t.Helper()

	s := &OptionServer{
		routes: make(map[string]Route, len(routes)),
		hits:   make(map[string]int),
	}
	for path, route := range routes {
		s.routes[path] = route
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *OptionServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	route, ok := s.routes[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if route.Hold != nil {
		select {
		case <-route.Hold:
		case <-r.Context().Done():
			return
		}
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(route.Body))
}

// Hits reports how many requests path received.
func (s *OptionServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Total reports how many requests the server received.
func (s *OptionServer) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// Values encodes value/label pairs as an option payload.
func Values(pairs ...[2]string) string {
	values := make([][2]string, 0, len(pairs))
	values = append(values, pairs...)
	data, err := json.Marshal(map[string]any{"values": values})
	if err != nil {
		panic(err)
	}
	return string(data)
}
