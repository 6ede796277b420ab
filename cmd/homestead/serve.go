package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/homestead/internal/server"
)

// simulationService is the health service name reported for the tick loop.
const simulationService = "homestead.simulation"

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation continuously with a gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			s, err := a.build(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			lis, err := net.Listen("tcp", a.cfg.Health.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", a.cfg.Health.Addr(), err)
			}
			health := server.NewHealthService(lis, a.logger)

			lifecycle := server.NewLifecycle(a.logger)
			lifecycle.Add("health", health)

			simCtx, stopSim := context.WithCancel(ctx)
			lifecycle.Add("simulation", &server.FuncService{
				StartFn: func() error {
					done := s.sim.Start(simCtx)
					health.SetServing("", true)
					health.SetServing(simulationService, true)
					<-done
					health.SetServing(simulationService, false)
					return nil
				},
				StopFn: stopSim,
			})

			if pool := s.journal.pool; pool != nil {
				dbCtx, stopDB := context.WithCancel(ctx)
				lifecycle.Add("postgres", &server.FuncService{
					StartFn: func() error {
						ticker := time.NewTicker(30 * time.Second)
						defer ticker.Stop()
						for {
							select {
							case <-dbCtx.Done():
								return nil
							case <-ticker.C:
								if err := pool.Health(dbCtx, 5*time.Second); err != nil {
									a.logger.Warn("database health check failed", zap.Error(err))
									health.SetServing("", false)
								} else {
									health.SetServing("", true)
								}
							}
						}
					},
					StopFn: stopDB,
				})
			}

			a.logger.Info("homestead server initialized",
				zap.Duration("startup", time.Since(start)),
				zap.String("health_addr", lis.Addr().String()),
				zap.Duration("tick_interval", a.cfg.Simulation.TickInterval),
			)
			return lifecycle.Run(ctx)
		},
	}
}
