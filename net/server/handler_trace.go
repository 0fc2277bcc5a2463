package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"lockstep.team/rngd/trace"
)

// TraceFeedHandler returns a http.HandlerFunc serving the live draw feed
// over WebSocket on 'GET /api/trace/ws'. Each record is one JSON message;
// slow consumers miss records instead of stalling the simulation.
func TraceFeedHandler(feed *trace.Feed, allowedOrigins []string) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {
		addr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: allowedOrigins,
		})
		if err != nil {
			log.Printf("[%s] New trace subscriber: upgrade failed: %s", addr, err)
			return
		}
		defer c.CloseNow()

		// the remote addr includes the port, unique enough per connection
		sub := feed.Subscribe(addr)
		defer feed.Unsubscribe(addr)

		log.Printf("[%s] New trace subscriber", addr)
		defer log.Printf("[%s] Trace subscriber closed", addr)

		ctx := r.Context()
		for {
			select {

			case <-ctx.Done():
				c.Close(websocket.StatusGoingAway, "server closing")
				return

			case rec, ok := <-sub:
				if !ok { // replaced by a newer subscription
					c.Close(websocket.StatusNormalClosure, "resubscribed")
					return
				}
				if err := wsjson.Write(ctx, c, rec); err != nil {
					return
				}
			}
		}
	}
}

// JournalHandler dumps one session's journaled draw sequence as a JSON
// array on 'GET /api/journal/{session}'.
func JournalHandler(journal *trace.Journal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := r.PathValue("session")
		if session == "" {
			http.Error(w, "path pattern not found", http.StatusInternalServerError)
			return
		}
		records, err := journal.Records(session)
		if err != nil {
			log.Printf("ERR: journal dump [%s]: %s", r.RemoteAddr, err)
			http.Error(w, "reading journal failed", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []trace.Record{}
		}
		w.Header().Add("content-type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

// JournalSessionsHandler lists all journaled capture sessions.
func JournalSessionsHandler(journal *trace.Journal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := journal.Sessions()
		if err != nil {
			log.Printf("ERR: journal sessions [%s]: %s", r.RemoteAddr, err)
			http.Error(w, "reading journal failed", http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []string{}
		}
		w.Header().Add("content-type", "application/json")
		json.NewEncoder(w).Encode(sessions)
	}
}

// JournalCompareHandler compares two journaled sessions and reports the
// first diverging draw on 'GET /api/journal/compare?a=..&b=..' — the
// desync post-mortem in one request.
func JournalCompareHandler(journal *trace.Journal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		a, b := q.Get("a"), q.Get("b")
		if a == "" || b == "" {
			http.Error(w, "need both ?a= and ?b= session names", http.StatusBadRequest)
			return
		}
		recsA, err := journal.Records(a)
		if err == nil {
			var recsB []trace.Record
			recsB, err = journal.Records(b)
			if err == nil {
				idx := trace.FirstDivergence(recsA, recsB)
				resp := map[string]any{
					"a":          a,
					"b":          b,
					"lengthA":    len(recsA),
					"lengthB":    len(recsB),
					"divergence": idx,
					"identical":  idx == -1,
				}
				w.Header().Add("content-type", "application/json")
				json.NewEncoder(w).Encode(resp)
				return
			}
		}
		log.Printf("ERR: journal compare [%s]: %s", r.RemoteAddr, err)
		http.Error(w, "reading journal failed", http.StatusInternalServerError)
	}
}
