package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"lockstep.team/rngd/config"
	"lockstep.team/rngd/entropy"
	"lockstep.team/rngd/logging"
	"lockstep.team/rngd/net/server"
	"lockstep.team/rngd/rng"
	"lockstep.team/rngd/sim"
	"lockstep.team/rngd/trace"
)

func main() {
	printBanner()
	printVersion()

	// use configuration from environment variables
	conf := config.GetConfiguration()
	log.Printf("%#v", &conf)

	// structured logger: console plus optional rotating trace file
	logger := logging.New(conf.Development, conf.TraceLog)
	defer logger.Sync()

	// probe the entropy backend with the cosmetic randomizer as fallback
	pair := &rng.Pair{}
	source := entropy.NewSource(&pair.Cosmetic, logger)

	// seed the session: fixed from config for reproducible captures, or a
	// fresh one from entropy (logged, so the capture stays replayable)
	seed := conf.Seed
	if seed == 0 {
		seed = source.Seed32()
	}
	pair.SetSeed(seed)
	log.Printf("Session seed: %#08x", seed)

	// name the capture session
	session := conf.Session
	if session == "" {
		session = source.SessionID().String()
	}
	log.Printf("Capture session: %s", session)

	// trace observers: live feed and optional persistent journal
	observers := []trace.Observer{}
	feed := trace.NewFeed()
	observers = append(observers, feed)
	var journal *trace.Journal
	if conf.Journal != "" {
		var err error
		journal, err = trace.OpenJournal(conf.Journal, logger)
		if err != nil {
			log.Fatalf("failed to open journal: %s", err)
		}
		defer journal.Close()
		observers = append(observers, journal)
		log.Printf("Draw journal: %s", conf.Journal)
	}

	// create a new http server for the daemon
	mux := http.NewServeMux()
	daemon, err := server.NewServer(mux, conf.HttpListen, conf.HttpCert, conf.HttpKey)
	if err != nil {
		log.Fatalf("failed to start server: %s", err)
	}

	// maybe start the synthetic simulation loop to generate draw traffic
	loop := sim.NewLoop(pair, session, conf.Tickrate, logger, observers...)
	go loop.Run(context.Background())
	if conf.Tickrate > 0 {
		log.Printf("Synthetic simulation loop at %d ticks/s", conf.Tickrate)
	}

	// entropy endpoints
	mux.HandleFunc("GET /api/entropy", server.EntropyHandler(source, conf.EntropyConcurrency))
	mux.HandleFunc("GET /api/session/id", server.SessionIDHandler(source))
	log.Printf("Entropy at %s/api/entropy", daemon.Addr())

	// live trace feed
	mux.HandleFunc("GET /api/trace/ws", server.TraceFeedHandler(feed, conf.AllowedOrigins))
	log.Printf("Trace feed: %s/api/trace/ws", daemon.Addr())

	// journal dump and comparison
	if journal != nil {
		mux.HandleFunc("GET /api/journal/sessions", server.JournalSessionsHandler(journal))
		mux.HandleFunc("GET /api/journal/compare", server.JournalCompareHandler(journal))
		mux.HandleFunc("GET /api/journal/{session}", server.JournalHandler(journal))
		log.Printf("Journal at %s/api/journal/{session}", daemon.Addr())
	}

	// health and version message
	mux.HandleFunc("GET /healthz", server.Healthz())
	mux.HandleFunc("GET /api/version", server.Version())

	// pprof endpoint for debugging
	if conf.Debug {
		mux.Handle("GET /debug/pprof/", server.Profiling())
		log.Printf("DEBUG: rngd PID is %d", os.Getpid())
		log.Printf("DEBUG: pprof profiles at %s/debug/pprof", daemon.Addr())
	}

	// prometheus metrics
	if conf.Metrics {
		mux.Handle("/metrics", server.Prometheus())
		log.Printf("Prometheus metrics: %s/metrics", daemon.Addr())
	}

	// start listening http server
	log.Printf("rngd listening on %s", daemon.Addr())
	if err := daemon.ListenAndServe(); err != nil {
		log.Fatalf("oops: %s", err)
	}

}
