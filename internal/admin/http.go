// Package admin serves the read/delete-only HTTP surface over the metric
// registry: GET /<type> lists every live name of that type, GET
// /<type>/<name> renders its current value(s), and DELETE /<type>/<name>
// removes it. No other methods are accepted anywhere on this surface.
package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/cc-metrics/statsgod/internal/aggregate"
	"github.com/cc-metrics/statsgod/internal/registry"
	"github.com/cc-metrics/statsgod/internal/statsdlog"
)

// Server is the HTTP admin surface bound to one registry.
type Server struct {
	reg    *registry.Registry
	router *mux.Router
}

func New(reg *registry.Registry) *Server {
	s := &Server{reg: reg, router: mux.NewRouter()}

	for _, t := range []aggregate.Type{aggregate.Counter, aggregate.Gauge, aggregate.Timer, aggregate.Set} {
		path := "/" + t.PathComponent()
		s.router.HandleFunc(path, s.handleList(t))
		s.router.HandleFunc(path+"/{name:.*}", s.handleItem(t))
	}

	return s
}

// Handler returns the http.Handler to mount, wrapped the way the teacher
// wraps its own router: gzip compression for clients that ask for it, and
// a recovery middleware that turns a handler panic into a 500 instead of a
// dropped connection.
func (s *Server) Handler() http.Handler {
	return handlers.CompressHandler(handlers.RecoveryHandler()(s.router))
}

func (s *Server) handleList(t aggregate.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var names []string
		s.reg.AscendType(t, func(c *registry.Cell) bool {
			names = append(names, c.Name)
			return true
		})
		if names == nil {
			names = []string{}
		}

		writeJSON(w, http.StatusOK, names)
	}
}

func (s *Server) handleItem(t aggregate.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]

		switch r.Method {
		case http.MethodGet:
			s.getItem(w, t, name)
		case http.MethodDelete:
			s.deleteItem(w, t, name)
		default:
			w.Header().Set("Allow", "GET, DELETE")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) getItem(w http.ResponseWriter, t aggregate.Type, name string) {
	cell, ok := s.reg.Lookup(name)
	if !ok || cell.Type() != t {
		writeNotFound(w, name)
		return
	}
	writeJSON(w, http.StatusOK, renderCell(cell))
}

func (s *Server) deleteItem(w http.ResponseWriter, t aggregate.Type, name string) {
	cell, ok := s.reg.Lookup(name)
	if !ok || cell.Type() != t {
		writeNotFound(w, name)
		return
	}
	s.reg.Delete(name)
	statsdlog.Infof("admin: deleted %s %q", t, name)
	w.WriteHeader(http.StatusNoContent)
}

// renderCell builds the JSON body for a single metric's live state: this is
// the current contents of the cell, not a flush-time render, so TIMER and
// SET report their raw members rather than the derived stats/cardinality a
// flush sends to Graphite.
func renderCell(c *registry.Cell) map[string]any {
	body := map[string]any{
		"name":          c.Name,
		"type":          c.Type().String(),
		"last_modified": c.LastModified.Unix(),
	}

	switch acc := c.Acc.(type) {
	case *aggregate.TimerState:
		body["values"] = acc.Values()
	case *aggregate.SetState:
		body["values"] = acc.Values()
	default:
		if fields := c.Acc.Render(time.Now()); len(fields) == 1 {
			body["value"] = fields[0].Value
		}
	}

	return body
}

// ErrorResponse is the envelope the per-metric 404 responses carry. The 405
// responses, the router's own 404 for an unknown path and the recovery
// middleware's 500 are plain-text bodies.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func writeNotFound(w http.ResponseWriter, name string) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Status: "Not Found",
		Error:  fmt.Sprintf("metric %q not found", name),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		statsdlog.Errorf("admin: encoding response: %v", err)
	}
}
