package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/scoretree/internal/api/rest"
	"github.com/fortuna/scoretree/internal/api/websocket"
	"github.com/fortuna/scoretree/internal/jobs"
	"github.com/fortuna/scoretree/internal/scheduler"
	"github.com/fortuna/scoretree/internal/sink"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the job service with the REST API, websocket feed and scheduler.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		log := a.log.WithField("service", appName)
		log.Infof("starting %s v%s", appName, appVersion)

		hubCtx, stopHub := context.WithCancel(context.Background())
		defer stopHub()
		hub := websocket.NewHub(a.log)
		go hub.Run(hubCtx)

		nodes := a.nodeSource(a.cfg.Harvest.NodesPath)
		runner := jobs.NewRunner(
			discoverJob{app: a, out: a.cfg.Discovery.OutputPath},
			harvestJob{app: a, out: a.cfg.Harvest.OutputPath, extra: sink.Multi{sink.NewBroadcastSink(hub)}},
			nodes,
		)
		svc := jobs.NewService(
			jobs.NewRepository(a.statusCache(), a.log),
			runner,
			jobs.Defaults{
				MinID:    a.cfg.Discovery.MinID,
				MaxID:    a.cfg.Discovery.MaxID,
				MaxRange: a.cfg.Discovery.MaxRange,
			},
			a.log,
		)
		svc.Start()

		sched, err := scheduler.NewOrchestrator(svc, scheduler.Config{
			Discovery: a.cfg.Schedule.Discovery,
			Harvest:   a.cfg.Schedule.Harvest,
		}, a.log)
		if err != nil {
			return err
		}
		sched.Start()

		checks := map[string]rest.HealthChecker{}
		if a.db != nil {
			checks["postgres"] = a.db
		}
		if a.redis != nil {
			checks["redis"] = a.redis
		}
		restServer := rest.NewServer(a.cfg.Server.RESTPort, rest.NewHandler(nodes, checks), rest.NewJobHandler(svc), a.metrics.Handler(), a.log)
		go func() {
			log.WithField("port", a.cfg.Server.RESTPort).Info("REST API listening")
			if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("REST server error")
			}
		}()

		wsServer := websocket.NewServer(hub, a.log)
		go func() {
			if err := wsServer.Start(a.cfg.Server.WSPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("websocket server error")
			}
		}()

		<-ctx.Done()
		log.Info("shutting down")

		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := restServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("REST server shutdown")
		}
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("websocket server shutdown")
		}
		if err := svc.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("job service shutdown")
		}
		stopHub()

		log.Info("stopped")
		return nil
	},
}
