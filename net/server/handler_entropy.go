package server

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/marusama/semaphore/v2"

	"lockstep.team/rngd/entropy"
)

// largest single entropy request we are willing to serve
const maxEntropyBytes = 4096

// EntropyHandler serves hex-encoded random bytes from the Source on
// 'GET /api/entropy?bytes=n'. Concurrent fills are capped with a
// resizable semaphore so a request flood cannot hog the backend.
func EntropyHandler(src *entropy.Source, concurrency int) http.HandlerFunc {
	if concurrency < 1 {
		concurrency = 1
	}
	limiter := semaphore.New(concurrency)

	return func(w http.ResponseWriter, r *http.Request) {

		// number of bytes to generate, default 32
		n := 32
		if q := r.URL.Query().Get("bytes"); q != "" {
			v, err := strconv.Atoi(q)
			if err != nil || v < 1 || v > maxEntropyBytes {
				http.Error(w, fmt.Sprintf("bytes must be 1..%d", maxEntropyBytes), http.StatusBadRequest)
				return
			}
			n = v
		}

		// wait for a fill slot, or give up with the client
		if err := limiter.Acquire(r.Context(), 1); err != nil {
			http.Error(w, "request cancelled", http.StatusServiceUnavailable)
			return
		}
		defer limiter.Release(1)

		buf := make([]byte, n)
		src.Fill(buf)

		w.Header().Add("content-type", "text/plain")
		fmt.Fprintln(w, hex.EncodeToString(buf))
	}
}

// SessionIDHandler mints a fresh random session identifier on
// 'GET /api/session/id'.
func SessionIDHandler(src *entropy.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := src.SessionID()
		w.Header().Add("content-type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"id": id.String()}); err != nil {
			log.Printf("ERR: session id [%s]: %s", r.RemoteAddr, err)
		}
	}
}
