package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/cli"
	httpadapter "github.com/aretw0/waypoint/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stateless HTTP server",
	Long:  `Exposes session stepping as a JSON API over HTTP, with a server-sent event stream per session.`,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadSettings(cmd)
		if err != nil {
			fatalf("Error loading settings: %v", err)
		}
		if cmd.Flags().Changed("addr") {
			s.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("metrics") {
			s.Server.Metrics, _ = cmd.Flags().GetBool("metrics")
		}

		debug, _ := cmd.Flags().GetBool("debug")
		opts := []cli.EnvOption{cli.WithDebug(debug)}
		if s.Server.Metrics {
			opts = append(opts, cli.WithMetrics(prometheus.NewRegistry()))
		}
		env, err := cli.NewEnv(s, opts...)
		if err != nil {
			fatalf("Error initializing waypoint: %v", err)
		}
		defer env.Close()

		handlerOpts := []httpadapter.Option{
			httpadapter.WithDocuments(env.Documents),
			httpadapter.WithLogger(env.Logger),
			httpadapter.WithVersion(waypoint.Version),
		}
		if env.Metrics != nil {
			handlerOpts = append(handlerOpts, httpadapter.WithMetrics(env.Metrics.Handler()))
		}

		srv := &http.Server{
			Addr:              s.Server.Addr,
			Handler:           httpadapter.NewHandler(env.Service(), handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Waypoint Server on %s\n", srv.Addr)
			fmt.Printf("Serving documents from: %s\n", s.Documents.Root)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			env.Close()
			fatalf("Server error: %v", err)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Waypoint Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
}
