package httpapi

import (
	"context"
	"net/http"

	"github.com/jonwraymond/refdataops/observe"
)

type reportResponse struct {
	StoreID string   `json:"store_id"`
	Summary string   `json:"summary,omitempty"`
	Records []string `json:"records"`
}

func (s *Server) diagGroups(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, observe.OpMeta{Operation: "all_group_names"}, func(context.Context) (any, error) {
		return reportResponse{
			StoreID: s.store.ID().String(),
			Summary: s.store.AllGroupNames(),
			Records: s.store.GroupNames(),
		}, nil
	})
}

func (s *Server) diagSizes(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, observe.OpMeta{Operation: "group_size_report"}, func(context.Context) (any, error) {
		return reportResponse{StoreID: s.store.ID().String(), Records: s.store.GroupSizeReport()}, nil
	})
}

func (s *Server) diagDetails(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, observe.OpMeta{Operation: "group_detail_report"}, func(context.Context) (any, error) {
		return reportResponse{StoreID: s.store.ID().String(), Records: s.store.GroupDetailReport()}, nil
	})
}

func (s *Server) diagKeys(w http.ResponseWriter, r *http.Request) {
	p, err := required(r, "group")
	if err != nil {
		writeError(w, err)
		return
	}
	s.serve(w, r, observe.OpMeta{Operation: "entry_keys"}, func(context.Context) (any, error) {
		return reportResponse{
			StoreID: s.store.ID().String(),
			Summary: s.store.EntryKeysForGroup(p[0]),
			Records: s.store.EntryKeys(p[0]),
		}, nil
	})
}

func (s *Server) diagStats(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, observe.OpMeta{Operation: "stats"}, func(context.Context) (any, error) {
		return s.store.Stats(), nil
	})
}
