package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/pathway"
	"github.com/vango-dev/pathway/internal/config"
	"github.com/vango-dev/pathway/pkg/inspect"
	"github.com/vango-dev/pathway/pkg/loader"
	"github.com/vango-dev/pathway/pkg/middleware"
	"github.com/vango-dev/pathway/pkg/routepath"
	"github.com/vango-dev/pathway/pkg/ssr"
)

// InspectPrefix is where the inspect API is mounted.
const InspectPrefix = "/_pathway/inspect"

// snapshotCacheSize bounds the in-memory snapshot store.
const snapshotCacheSize = 1024

func serveCmd(flags *projectFlags) *cobra.Command {
	var (
		port        int
		host        string
		withInspect bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered snapshots of the manifest",
		Long: `Serve every location of the manifest as a JSON snapshot. Each
request is loaded by a fresh router and answered with the derived status
code, or with the redirect a route produced.

Snapshots are stored per pathway.json (memory, disk, s3 or none) and can
be fetched again from /_pathway/snapshots/{id}. With --inspect a live
router is exposed under /_pathway/inspect.

Examples:
  pathway serve
  pathway serve --port=8080 --inspect`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(flags, os.Stderr)
			if err != nil {
				return err
			}
			if port > 0 {
				p.cfg.Server.Port = port
			}
			if host != "" {
				p.cfg.Server.Host = host
			}
			if withInspect {
				p.cfg.Server.Inspect = true
			}
			return runServe(cmd.Context(), p)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from pathway.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from pathway.json)")
	cmd.Flags().BoolVar(&withInspect, "inspect", false, "Expose the inspect API")

	return cmd
}

func runServe(ctx context.Context, p *project) error {
	store, err := openStore(p.cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var metrics *middleware.Metrics
	tracer := middleware.OpenTelemetry()
	interceptors := []loader.Interceptor{tracer.Interceptor()}
	if p.cfg.Server.Metrics || p.cfg.Server.Inspect {
		metrics = middleware.Prometheus(middleware.WithRegistry(reg))
		interceptors = append(interceptors, metrics.Interceptor())
	}

	base := p.cfg.RouterOptions(p.log)
	base.Interceptors = interceptors

	newRouter := func() (*pathway.Router, func()) {
		r := pathway.NewWithTree(p.tree, base)
		detach := tracer.Attach(r)
		return r, func() {
			detach()
			r.Close()
		}
	}

	trailing, _ := routepath.ParseTrailingSlash(p.cfg.Router.TrailingSlash)
	render := ssr.NewHandler(func(*http.Request) (ssr.Renderer, error) {
		r, release := newRouter()
		return &oneShot{router: r, release: release}, nil
	}, ssr.HandlerOptions{Store: store, TrailingSlash: trailing, Logger: p.log})

	mux := chi.NewRouter()
	if p.cfg.Server.Inspect {
		live, release := newRouter()
		defer release()
		// Navigation gauges describe one router, so only the live one
		// reports them. Rendering routers still count hook calls.
		if metrics != nil {
			defer metrics.Attach(live)()
		}
		api := inspect.New(live, inspect.Options{Gatherer: reg, Logger: p.log})
		mux.Mount(InspectPrefix, api.Handler())
	}
	mux.Mount("/", render)

	srv := &http.Server{
		Addr:              p.cfg.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	success("Serving %s (%d routes) at http://%s", p.source, p.tree.Len(), p.cfg.Address())
	info("snapshots: %s", p.cfg.Snapshots.Store)
	if p.cfg.Server.Inspect {
		info("inspect:   http://%s%s/routes", p.cfg.Address(), InspectPrefix)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		fmt.Println("\n  Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// oneShot renders once and releases its router.
type oneShot struct {
	router  *pathway.Router
	release func()
}

func (o *oneShot) Render(ctx context.Context, href string) (*ssr.Snapshot, error) {
	defer o.release()
	return o.router.Render(ctx, href)
}

func openStore(cfg *config.Config) (ssr.Store, error) {
	switch cfg.Snapshots.Store {
	case "memory":
		return ssr.NewMemoryStore(snapshotCacheSize), nil
	case "disk":
		dir := cfg.Snapshots.Dir
		if base := cfg.Dir(); base != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		return ssr.NewDiskStore(dir)
	case "s3":
		return ssr.NewS3Store(newS3Client(cfg.Snapshots.Region), cfg.Snapshots.Bucket, cfg.Snapshots.Prefix), nil
	}
	return nil, nil
}

func newS3Client(region string) *s3.Client {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if endpoint := os.Getenv("AWS_ENDPOINT_URL_S3"); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle, _ = strconv.ParseBool(os.Getenv("AWS_S3_USE_PATH_STYLE"))
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for the s3 snapshot store")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}, nil
}
