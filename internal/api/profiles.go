package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/factfind/internal/profile"
	"github.com/MikeSquared-Agency/factfind/internal/store"
)

type createProfileRequest struct {
	UserID    string  `json:"user_id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	_, err := s.deps.Store.GetProfile(r.Context(), req.UserID)
	switch {
	case err == nil:
		writeError(w, http.StatusConflict, "profile already exists for user_id: "+req.UserID)
		return
	case !errors.Is(err, store.ErrNotFound):
		s.internalError(w, "read profile failed", err)
		return
	}

	fp := profile.NewStub(req.UserID, req.FirstName, req.LastName)
	fp.Stamp(s.now().UTC())
	if err := s.deps.Store.SaveProfile(r.Context(), fp); err != nil {
		s.internalError(w, "create profile failed", err)
		return
	}
	s.logger.Info("profile created", "user_id", req.UserID)
	respondJSON(w, http.StatusCreated, fp)
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var filters []store.Filter
	echo := map[string]any{}
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := enumParam(r, "status", profile.Statuses)
		if err != nil {
			s.badRequest(w, err)
			return
		}
		filters = append(filters, store.Eq("status", string(st)))
		echo["status"] = st
	}
	s.findProfiles(w, r, filters, nil, page, echo)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	doc, err := s.deps.Store.GetProfile(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		s.internalError(w, "read profile failed", err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// updateProfile merges the body into the stored profile section by section.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON: "+err.Error())
		return
	}

	existing, err := s.deps.Store.GetProfile(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		s.internalError(w, "read profile failed", err)
		return
	}

	fp, err := profile.Merge(existing, patch, userID, s.now())
	if err != nil {
		var verr *profile.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    verr.Error(),
				"problems": verr.Problems,
			})
			return
		}
		s.internalError(w, "merge profile failed", err)
		return
	}

	if err := s.deps.Store.SaveProfile(r.Context(), fp); err != nil {
		s.internalError(w, "update profile failed", err)
		return
	}
	s.logger.Info("profile updated", "user_id", userID, "status", fp.Status)
	respondJSON(w, http.StatusOK, fp)
}

func (s *Server) profilesByName(w http.ResponseWriter, r *http.Request) {
	name, err := requiredParam(r, "name")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	filters := []store.Filter{store.AnyOf(
		store.Contains("personal_info.first_name", name),
		store.Contains("personal_info.last_name", name),
	)}
	s.findProfiles(w, r, filters, nil, page, map[string]any{"search_term": name})
}

func (s *Server) profilesByStatus(w http.ResponseWriter, r *http.Request) {
	st, err := enumParam(r, "status", profile.Statuses)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.findProfiles(w, r, []store.Filter{store.Eq("status", string(st))}, store.Newest, page, map[string]any{"status": st})
}

func (s *Server) profilesByEmployment(w http.ResponseWriter, r *http.Request) {
	es, err := enumParam(r, "employment_status", profile.EmploymentStatuses)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	filters := []store.Filter{store.Eq("employment.employment_status", string(es))}
	s.findProfiles(w, r, filters, nil, page, map[string]any{"employment_status": es})
}

func (s *Server) profilesByRiskAttitude(w http.ResponseWriter, r *http.Request) {
	ra, err := enumParam(r, "risk_attitude", profile.RiskAttitudes)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	filters := []store.Filter{store.Eq("risk_profile.risk_attitude", string(ra))}
	s.findProfiles(w, r, filters, nil, page, map[string]any{"risk_attitude": ra})
}

func (s *Server) profilesByNetWorth(w http.ResponseWriter, r *http.Request) {
	s.profilesByRange(w, r, "financial_position.net_worth", "min_net_worth", "max_net_worth")
}

func (s *Server) profilesByIncome(w http.ResponseWriter, r *http.Request) {
	s.profilesByRange(w, r, "employment.total_annual_income", "min_income", "max_income")
}

// profilesByRange filters on optional inclusive bounds and sorts highest first.
func (s *Server) profilesByRange(w http.ResponseWriter, r *http.Request, path, minParam, maxParam string) {
	lo, err := floatParam(r, minParam)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	hi, err := floatParam(r, maxParam)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	sort := &store.Sort{Path: path, Numeric: true, Desc: true}
	s.findProfiles(w, r, rangeFilters(path, lo, hi), sort, page, map[string]any{minParam: lo, maxParam: hi})
}

func (s *Server) findProfiles(w http.ResponseWriter, r *http.Request, filters []store.Filter, sort *store.Sort, page store.Page, echo map[string]any) {
	res, err := s.deps.Store.FindProfiles(r.Context(), filters, sort, page)
	if err != nil {
		s.internalError(w, "query profiles failed", err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse("profiles", res, page, echo))
}
