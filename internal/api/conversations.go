package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/factfind/internal/store"
)

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var filters []store.Filter
	echo := map[string]any{}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		filters = append(filters, store.Eq("user_id", userID))
		echo["user_id"] = userID
	}
	s.findConversations(w, r, filters, nil, page, echo)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversation_id")
	doc, err := s.deps.Store.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.internalError(w, "read conversation failed", err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) conversationsByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	filters := []store.Filter{store.Eq("user_id", userID)}
	s.findConversations(w, r, filters, store.Newest, page, map[string]any{"user_id": userID})
}

func (s *Server) conversationsByStatus(w http.ResponseWriter, r *http.Request) {
	s.conversationsByField(w, r, "status")
}

func (s *Server) conversationsByAgent(w http.ResponseWriter, r *http.Request) {
	s.conversationsByField(w, r, "agent_id")
}

// conversationsByField matches a top-level field named like its query
// parameter, newest first.
func (s *Server) conversationsByField(w http.ResponseWriter, r *http.Request, field string) {
	v, err := requiredParam(r, field)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.findConversations(w, r, []store.Filter{store.Eq(field, v)}, store.Newest, page, map[string]any{field: v})
}

func (s *Server) conversationsByDateRange(w http.ResponseWriter, r *http.Request) {
	start, err := intParam(r, "start_timestamp")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	end, err := intParam(r, "end_timestamp")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	const path = "metadata.start_time_unix_secs"
	filters := []store.Filter{store.Gte(path, float64(start)), store.Lte(path, float64(end))}
	sort := &store.Sort{Path: path, Numeric: true, Desc: true}
	s.findConversations(w, r, filters, sort, page, map[string]any{
		"start_timestamp": start,
		"end_timestamp":   end,
	})
}

func (s *Server) findConversations(w http.ResponseWriter, r *http.Request, filters []store.Filter, sort *store.Sort, page store.Page, echo map[string]any) {
	res, err := s.deps.Store.FindConversations(r.Context(), filters, sort, page)
	if err != nil {
		s.internalError(w, "query conversations failed", err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse("conversations", res, page, echo))
}
