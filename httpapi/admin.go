package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonwraymond/refdataops/loader"
	"github.com/jonwraymond/refdataops/observe"
	"github.com/jonwraymond/refdataops/refdata"
	"github.com/jonwraymond/refdataops/resilience"
)

type xrefRequest struct {
	Domains     []string `json:"domains"`
	TypeCodes   []string `json:"typecodes"`
	RLCodes     []string `json:"rl_codes"`
	DomainCodes []string `json:"domain_codes"`
	Directions  []string `json:"directions"`
	Expirations []string `json:"expirations"`
}

type loadResponse struct {
	Loaded int `json:"loaded"`
}

func (s *Server) loadXRefs(w http.ResponseWriter, r *http.Request) {
	var req xrefRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.serve(w, r, observe.OpMeta{Operation: "set_xref_entries"}, func(context.Context) (any, error) {
		err := s.store.SetXRefEntries(req.Domains, req.TypeCodes, req.RLCodes, req.DomainCodes, req.Directions, req.Expirations)
		return loadResponse{Loaded: len(req.Domains)}, err
	})
}

type listRefRequest struct {
	TypeCodes   []string `json:"typecodes"`
	Codes       []string `json:"codes"`
	Values      []string `json:"values"`
	Expirations []string `json:"expirations"`
}

func (s *Server) loadListRefs(w http.ResponseWriter, r *http.Request) {
	var req listRefRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	meta := observe.OpMeta{Operation: "set_listref_entries", Prefix: refdata.PrefixListRef}
	s.serve(w, r, meta, func(context.Context) (any, error) {
		err := s.store.SetListRefEntries(req.TypeCodes, req.Codes, req.Values, req.Expirations)
		return loadResponse{Loaded: len(req.TypeCodes)}, err
	})
}

type extendedRequest struct {
	Value string `json:"value"`

	// Expiration uses refdata.ExpirationLayout; empty means never.
	Expiration string `json:"expiration"`
}

func (s *Server) loadExtended(w http.ResponseWriter, r *http.Request) {
	tc := r.PathValue("typecode")
	var req extendedRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	meta := observe.OpMeta{Operation: "set_extended_entry", Prefix: refdata.PrefixExtended, TypeCode: tc}
	s.serve(w, r, meta, func(context.Context) (any, error) {
		exp, err := refdata.ParseExpiration(req.Expiration, s.store.Location())
		if err != nil {
			return nil, err
		}
		s.store.SetExtendedEntry(tc, req.Value, exp)
		return loadResponse{Loaded: 1}, nil
	})
}

type emptyRequest struct {
	Prefix    string   `json:"prefix"`
	TypeCodes []string `json:"typecodes"`
}

func (s *Server) setEmpty(w http.ResponseWriter, r *http.Request) {
	var req emptyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Prefix == "" {
		writeError(w, fmt.Errorf("%w: prefix", errMissingParam))
		return
	}
	s.serve(w, r, observe.OpMeta{Operation: "set_empty", Prefix: req.Prefix}, func(context.Context) (any, error) {
		s.store.SetEmpty(req.Prefix, req.TypeCodes...)
		return loadResponse{Loaded: len(req.TypeCodes)}, nil
	})
}

type clearResponse struct {
	Scope     string   `json:"scope"`
	Prefix    string   `json:"prefix,omitempty"`
	TypeCodes []string `json:"typecodes,omitempty"`
}

// clearGroups clears the typecodes under every prefix, the typecodes under
// one prefix, or, with all=true and nothing else, the whole store.
func (s *Server) clearGroups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefix := q.Get("prefix")
	all := q.Get("all") == "true"
	tcs := typeCodes(r)
	switch {
	case all && (prefix != "" || len(tcs) > 0):
		writeError(w, fmt.Errorf("%w: all=true takes no prefix or typecode", errConflictingParams))
		return
	case !all && len(tcs) == 0:
		writeError(w, fmt.Errorf("%w: typecode (or all=true)", errMissingParam))
		return
	}
	s.serve(w, r, observe.OpMeta{Operation: "clear", Prefix: prefix}, func(context.Context) (any, error) {
		switch {
		case all:
			s.store.Clear()
			return clearResponse{Scope: "all"}, nil
		case prefix == "":
			s.store.ClearTypeCodes(tcs...)
			return clearResponse{Scope: "typecodes", TypeCodes: tcs}, nil
		default:
			s.store.ClearPrefix(prefix, tcs...)
			return clearResponse{Scope: "prefix", Prefix: prefix, TypeCodes: tcs}, nil
		}
	})
}

func (s *Server) removeEntry(w http.ResponseWriter, r *http.Request) {
	p, err := required(r, "group", "code")
	if err != nil {
		writeError(w, err)
		return
	}
	s.serve(w, r, observe.OpMeta{Operation: "remove_entry"}, func(context.Context) (any, error) {
		s.store.RemoveEntry(p[0], p[1])
		return map[string]string{"group": p[0], "code": p[1]}, nil
	})
}

type refreshRequest struct {
	TypeCodes []string `json:"typecodes"`
}

type refreshResponse struct {
	Results []loader.Result `json:"results"`
}

// refresh reloads typecodes from the source, each independently, or the
// whole store when none are named. A body is optional.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, errNoRefresher)
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		w.Header().Set("Retry-After", retryAfterSeconds(s.limiter.RetryAfter().Seconds()))
		writeError(w, resilience.ErrRateLimitExceeded)
		return
	}

	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	s.serve(w, r, observe.OpMeta{Operation: "refresh_request"}, func(ctx context.Context) (any, error) {
		if len(req.TypeCodes) == 0 {
			res, err := s.refresher.Refresh(ctx)
			return refreshResponse{Results: []loader.Result{res}}, err
		}
		results, err := s.refresher.RefreshEach(ctx, req.TypeCodes...)
		return refreshResponse{Results: results}, err
	})
}

