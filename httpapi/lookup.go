package httpapi

import (
	"context"
	"net/http"

	"github.com/jonwraymond/refdataops/observe"
	"github.com/jonwraymond/refdataops/refdata"
)

// serve runs fn through the middleware and writes its result as JSON.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, meta observe.OpMeta, fn func(context.Context) (any, error)) {
	res, err := s.mw.Run(r.Context(), meta, func(ctx context.Context, _ observe.OpMeta) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type typeCodesResponse struct {
	Prefix    string   `json:"prefix"`
	TypeCodes []string `json:"typecodes"`
}

func (s *Server) findTypeCodes(w http.ResponseWriter, r *http.Request) {
	p, err := required(r, "prefix")
	if err != nil {
		writeError(w, err)
		return
	}
	tcs := typeCodes(r)
	s.serve(w, r, observe.OpMeta{Operation: "find_typecodes", Prefix: p[0]}, func(context.Context) (any, error) {
		return typeCodesResponse{Prefix: p[0], TypeCodes: s.engine.FindTypeCodes(p[0], tcs...)}, nil
	})
}

type codeResponse struct {
	Code string `json:"code"`
}

func (s *Server) domainCode(w http.ResponseWriter, r *http.Request) {
	p, err := required(r, "domain", "typecode", "rl_code")
	if err != nil {
		writeError(w, err)
		return
	}
	meta := observe.OpMeta{Operation: "domain_code", Prefix: p[0], TypeCode: p[1]}
	s.serve(w, r, meta, func(context.Context) (any, error) {
		code, err := s.engine.DomainCode(p[0], p[1], p[2])
		return codeResponse{Code: code}, err
	})
}

func (s *Server) rlCode(w http.ResponseWriter, r *http.Request) {
	p, err := required(r, "domain", "typecode", "domain_code")
	if err != nil {
		writeError(w, err)
		return
	}
	meta := observe.OpMeta{Operation: "rl_code", Prefix: p[0], TypeCode: p[1]}
	s.serve(w, r, meta, func(context.Context) (any, error) {
		code, err := s.engine.RLCode(p[0], p[1], p[2])
		return codeResponse{Code: code}, err
	})
}

func (s *Server) validateCode(w http.ResponseWriter, r *http.Request) {
	p, err := required(r, "typecode", "code")
	if err != nil {
		writeError(w, err)
		return
	}
	meta := observe.OpMeta{Operation: "validate_code", Prefix: refdata.PrefixListRef, TypeCode: p[0]}
	s.serve(w, r, meta, func(context.Context) (any, error) {
		code, err := s.engine.ValidateCode(p[0], p[1])
		return codeResponse{Code: code}, err
	})
}

type entryResponse struct {
	Group string `json:"group"`
	Code  string `json:"code"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

func (s *Server) findEntry(w http.ResponseWriter, r *http.Request) {
	p, err := required(r, "group", "code")
	if err != nil {
		writeError(w, err)
		return
	}
	s.serve(w, r, observe.OpMeta{Operation: "find_entry"}, func(context.Context) (any, error) {
		v := s.engine.FindEntry(p[0], p[1])
		return entryResponse{Group: p[0], Code: p[1], Value: v, Found: v != ""}, nil
	})
}

type extendedResponse struct {
	TypeCode string `json:"typecode"`
	Value    string `json:"value"`
}

func (s *Server) extendedEntry(w http.ResponseWriter, r *http.Request) {
	tc := r.PathValue("typecode")
	meta := observe.OpMeta{Operation: "extended_entry", Prefix: refdata.PrefixExtended, TypeCode: tc}
	var found bool
	res, err := s.mw.Run(r.Context(), meta, func(context.Context, observe.OpMeta) (any, error) {
		v, ok := s.engine.ExtendedEntry(tc)
		found = ok
		return extendedResponse{TypeCode: tc, Value: v}, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no extended entry for " + tc})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type domainResponse struct {
	Domain   string `json:"domain"`
	TypeCode string `json:"typecode"`
	Loaded   bool   `json:"loaded"`
}

func (s *Server) validateDomain(w http.ResponseWriter, r *http.Request) {
	domain, tc := r.PathValue("domain"), r.PathValue("typecode")
	meta := observe.OpMeta{Operation: "validate_domain", Prefix: domain, TypeCode: tc}
	s.serve(w, r, meta, func(context.Context) (any, error) {
		return domainResponse{Domain: domain, TypeCode: tc, Loaded: s.engine.ValidateDomain(domain, tc)}, nil
	})
}
