// Command festfake serves a generated festival API for local development and
// load checks against festboard.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/festboard/internal/fakefest"
	"github.com/okian/festboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultTeams             = 4
	defaultCandidatesPerTeam = 25
	defaultProgrammes        = 40
	defaultEntrants          = 8
	defaultPublishedRatio    = 0.7
	readHeaderTimeout        = 5 * time.Second
	shutdownTimeout          = 10 * time.Second
)

func main() {
	var (
		addr       = flag.String("addr", ":9090", "listen address; the API is served under "+fakefest.Prefix)
		fixture    = flag.Bool("fixture", false, "serve the small hand-written fixture instead of generated data")
		teams      = flag.Int("teams", defaultTeams, "number of teams")
		perTeam    = flag.Int("candidates", defaultCandidatesPerTeam, "candidates per team")
		programmes = flag.Int("programmes", defaultProgrammes, "number of programmes")
		entrants   = flag.Int("entrants", defaultEntrants, "results per programme")
		published  = flag.Float64("published", defaultPublishedRatio, "share of programmes with published results (0..1)")
		latency    = flag.Duration("latency", 0, "delay added to every results request")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("festfake")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data := fakefest.Fixture()
	if !*fixture {
		var err error
		data, err = fakefest.Generate(fakefest.GenConfig{
			Teams:                *teams,
			CandidatesPerTeam:    *perTeam,
			Programmes:           *programmes,
			EntrantsPerProgramme: *entrants,
			PublishedRatio:       *published,
			Start:                time.Now().Truncate(24 * time.Hour),
		})
		if err != nil {
			log.Error(ctx, "generate dataset", logger.Error(err))
			os.Exit(1)
		}
	}

	fake := fakefest.NewServer(data)
	if *latency > 0 {
		for _, p := range data.Programmes {
			fake.Delay("/programmes/"+p.ID+"/results", *latency)
		}
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           fake,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "serving festival API",
			logger.String("addr", *addr),
			logger.String("prefix", fakefest.Prefix),
			logger.Int("teams", len(data.Teams)),
			logger.Int("candidates", len(data.Candidates)),
			logger.Int("programmes", len(data.Programmes)),
			logger.Int("results", len(data.Results)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "listen", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutdown", logger.Error(err))
	}
	log.Info(ctx, "stopped", logger.Int("requests", fake.TotalHits()))
}
