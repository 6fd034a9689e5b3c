package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonwraymond/refdataops/refdata"
	"github.com/jonwraymond/refdataops/resilience"
)

var (
	errMissingParam      = errors.New("httpapi: missing parameter")
	errBadBody           = errors.New("httpapi: malformed request body")
	errConflictingParams = errors.New("httpapi: conflicting parameters")
	errNoRefresher       = errors.New("httpapi: refresh is not configured")
)

// maxBody bounds load request bodies.
const maxBody = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a response. Errors with a wire rendering go out
// as text/plain so callers receive the exact wire string.
func writeError(w http.ResponseWriter, err error) {
	var wire refdata.WireError
	if errors.As(err, &wire) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, wire.WireString())
		return
	}
	writeJSON(w, statusOf(err), map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errMissingParam),
		errors.Is(err, errBadBody),
		errors.Is(err, errConflictingParams),
		errors.Is(err, refdata.ErrLengthMismatch),
		errors.Is(err, refdata.ErrInvalidExpiration):
		return http.StatusBadRequest
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, errNoRefresher), errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, resilience.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func required(r *http.Request, names ...string) ([]string, error) {
	q := r.URL.Query()
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = q.Get(name)
		if values[i] == "" {
			return nil, fmt.Errorf("%w: %s", errMissingParam, name)
		}
	}
	return values, nil
}

// typeCodes collects repeated and comma-separated typecode parameters.
func typeCodes(r *http.Request) []string {
	var out []string
	for _, v := range r.URL.Query()["typecode"] {
		for _, tc := range strings.Split(v, ",") {
			if tc = strings.TrimSpace(tc); tc != "" {
				out = append(out, tc)
			}
		}
	}
	return out
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func retryAfterSeconds(d float64) string {
	return strconv.Itoa(int(math.Max(1, math.Ceil(d))))
}
