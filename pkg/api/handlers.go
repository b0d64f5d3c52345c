package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hollowtree/etcdmate/pkg/config"
	"github.com/hollowtree/etcdmate/pkg/types"
)

type prefixRequest struct {
	Prefix string `json:"prefix"`
}

type rangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type putRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type atRevisionRequest struct {
	Key      string `json:"key"`
	Revision int64  `json:"revision"`
}

type importRequest struct {
	Entries []types.KeyValue `json:"entries"`
}

type historySaveRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var req prefixRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items, err := s.session.ListByPrefix(r.Context(), req.Prefix)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	var req prefixRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	keys, err := s.session.ListKeys(r.Context(), req.Prefix)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items, err := s.session.GetRange(r.Context(), req.Start, req.End)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	var req putRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.session.Put(r.Context(), req.Key, req.Value); err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.session.Delete(r.Context(), req.Key); err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAtRevision(w http.ResponseWriter, r *http.Request) {
	var req atRevisionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := s.session.GetAtRevision(r.Context(), req.Key, req.Revision)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "key had no value at that revision"})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	written, err := s.session.BulkPut(r.Context(), req.Entries)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"written": written})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.session.Members(r.Context())
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Status(r.Context())
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleConnectionInit(w http.ResponseWriter, r *http.Request) {
	connected, err := s.session.Connect(r.Context())
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}

func (s *Server) handleConnectionTest(w http.ResponseWriter, r *http.Request) {
	var profile config.Profile
	if err := decode(r, &profile); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(profile.Endpoints) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "profile has no endpoints"})
		return
	}

	version, err := s.session.TestConnection(r.Context(), &profile)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": version})
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	cfg := s.session.Config()
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleConfigPut(w http.ResponseWriter, r *http.Request) {
	var cfg config.AppConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := cfg.Save(s.cfgPath); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// The session invalidates its connection only if the active profile
	// selection changed.
	s.session.ApplyConfig(&cfg)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}

	paths, err := s.hist.Get(chi.URLParam(r, "profile"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, paths)
}

func (s *Server) handleHistorySave(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}

	var req historySaveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	paths, err := s.hist.Save(chi.URLParam(r, "profile"), req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, paths)
}
