package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/client/client"
	"github.com/dmitrijs2005/cinemaclub/internal/client/config"
	"github.com/dmitrijs2005/cinemaclub/internal/client/services"
	"github.com/dmitrijs2005/cinemaclub/internal/client/session"
	"github.com/dmitrijs2005/cinemaclub/internal/client/storage"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/dmitrijs2005/cinemaclub/internal/netx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	store     *storage.Store
	session   *session.Controller
	api       *client.API
	transport *client.Transport
	catalog   *services.CatalogService
	registry  *prometheus.Registry
	reader    *bufio.Reader
	out       io.Writer
}

// terminationNotice tells the user the pipeline ended the session.
type terminationNotice struct {
	session *session.Controller
	out     io.Writer
}

func (n *terminationNotice) Terminate(ctx context.Context) {
	was := n.session.Session().IsAuthenticated()
	n.session.Terminate(ctx)
	if was && !n.session.Session().IsAuthenticated() {
		fmt.Fprintln(n.out, session.MsgSessionExpired)
	}
}

// NewApp wires storage, the request pipeline, the session controller and the
// catalog. Input is read from in and all output goes to out.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	backend, err := storage.Open(ctx, c.StorageOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("credential storage: %w", err)
	}
	store := storage.NewStore(backend)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := client.NewMetrics(registry)

	ctrl := session.NewController(store, logger)
	transport := client.NewTransport(c.TransportConfig(), metrics, logger)

	pipe, err := client.NewPipeline(c.BaseURL, transport, store, &terminationNotice{session: ctrl, out: out}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	api := client.NewAPI(pipe)

	return &App{
		config:    c,
		logger:    logger,
		store:     store,
		session:   ctrl,
		api:       api,
		transport: transport,
		catalog:   services.NewCatalogService(api),
		registry:  registry,
		reader:    bufio.NewReader(in),
		out:       out,
	}, nil
}

// Run restores the stored session, starts the optional metrics listener and
// blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.session.Init(ctx, a.api); err != nil {
		fmt.Fprintln(a.out, "Warning:", err)
	}
	defer a.session.Dispose()

	if a.config.MetricsAddr != "" {
		go a.serveMetrics(ctx)
	}

	fmt.Fprintln(a.out, "Welcome to cinemaclub CLI (type 'help' for commands)")
	if u := a.session.Session().User; u != nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", u.Email)
	}

	runREPL(ctx, a, a.status, a.reader, a.out)
	return nil
}

func (a *App) serveMetrics(ctx context.Context) {
	srv := &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := netx.ListenAndServe(ctx, srv); err != nil {
		a.logger.Error(ctx, "metrics listener", "addr", a.config.MetricsAddr, "error", err)
	}
}

func (a *App) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn(context.Background(), "close credential storage", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Session().IsAuthenticated()
}

// status is the prompt decoration: "(email)" when signed in.
func (a *App) status() string {
	s := a.session.Session()
	switch {
	case s.User != nil:
		return fmt.Sprintf("(%s)", s.User.Email)
	case s.Status == session.Initializing:
		return "(starting)"
	default:
		return ""
	}
}
