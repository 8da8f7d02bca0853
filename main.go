// main.go
// Build/run:
//
//	go run . web                    # UI web en http://127.0.0.1:8080
//	go run . web --debug            # rexistra cada petición
//	go run . tui                    # UI TUI (terminal)
//	go run . --config taboleiro.yaml web
//
// Notas:
// - Só lectura: as fontes REST, CSV e SQLite (PRAGMA query_only=ON) nunca se escriben.
// - Exportación: CSV e XLSX da vista filtrada/ordenada.
// - Gráficas: no modo web úsase Chart.js; no modo TUI amósase un histograma ASCII.
// - GEMINI_API_KEY pode vir dun ficheiro .env.

package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tereborace.com/taboleiro/internal/config"
	"tereborace.com/taboleiro/internal/llm"
	"tereborace.com/taboleiro/internal/logger"
	"tereborace.com/taboleiro/internal/metrics"
	"tereborace.com/taboleiro/internal/source"
)

var version = "0.3.0"

//go:embed webstatic/*
var webFS embed.FS

//go:embed templates/*.gohtml templates/partials/*.gohtml
var tplFS embed.FS

type server struct {
	cfg     config.Config
	reg     *source.Registry
	llm     llm.Asker
	tpl     *template.Template
	log     *zap.Logger
	perPage int
	now     func() time.Time
}

func newServer(cfg config.Config, reg *source.Registry, asker llm.Asker, log *zap.Logger) (*server, error) {
	tpl, err := template.New("").
		Funcs(template.FuncMap{
			"num": formatNumber, // 34.26 -> 34.3
		}).
		ParseFS(tplFS,
			"templates/*.gohtml",
			"templates/partials/*.gohtml",
		)
	if err != nil {
		return nil, err
	}
	return &server{cfg: cfg, reg: reg, llm: asker, tpl: tpl, log: log, perPage: 25, now: time.Now}, nil
}

func (s *server) routes() (http.Handler, error) {
	assets, err := fs.Sub(webFS, "webstatic")
	if err != nil {
		return nil, err
	}
	debug := s.cfg.Server.Debug

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(assets))))
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/{$}", s.withLogging(debug, s.handleIndex))
	mux.HandleFunc("/table/{view}", s.withLogging(debug, s.handleTable))
	mux.HandleFunc("/export/csv", s.withLogging(debug, s.handleExportCSV))
	mux.HandleFunc("/export/xlsx", s.withLogging(debug, s.handleExportXLSX))
	mux.HandleFunc("POST /refresh", s.withLogging(debug, s.handleRefresh))
	mux.HandleFunc("/ev", s.withLogging(debug, s.handleEV))
	mux.HandleFunc("/guide", s.withLogging(debug, s.handleGuide))
	mux.HandleFunc("/chat", s.withLogging(debug, s.handleChat))

	mux.HandleFunc("/api/table/{view}", s.withLogging(debug, s.handleAPITable))
	mux.HandleFunc("/api/ev", s.withLogging(debug, s.handleAPIEV))
	mux.HandleFunc("POST /api/chat", s.withLogging(debug, s.handleAPIChat))
	return mux, nil
}

// middleware para empregar de debug nos handlers
func (s *server) withLogging(debug bool, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if debug {
			start := time.Now()
			s.log.Debug("→", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.String("query", r.URL.RawQuery))
			defer func() {
				s.log.Debug("←", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Duration("took", time.Since(start)))
			}()
		}
		h(w, r)
	}
}

func runWeb(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	reg, err := source.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer reg.Close()

	// precarga: enche a caché e deixa no log as fontes que fallan
	for _, res := range reg.LoadAll(ctx) {
		log.Info("source loaded", zap.String("source", res.Name), zap.Int("rows", res.Table.Len()), zap.Bool("ok", res.Err == nil))
	}

	srv, err := newServer(cfg, reg, llm.NewGemini(cfg.Gemini, log), log)
	if err != nil {
		return err
	}
	h, err := srv.routes()
	if err != nil {
		return err
	}

	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- httpSrv.ListenAndServe() }()
	log.Info("Web UI", zap.String("url", "http://"+cfg.Server.Addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func runTUI(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	reg, err := source.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer reg.Close()

	p := tea.NewProgram(initialTUI(ctx, reg), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func main() {
	// .env opcional
	_ = godotenv.Load()

	var configFile, logLevel string
	var cfg config.Config

	root := &cobra.Command{
		Use:   "taboleiro",
		Short: "Taboleiros de eventos escolares, autos eléctricos e Moto-Chat",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(configFile); err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			return logger.Init(cfg.Log)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "ficheiro YAML de configuración")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "nivel de log (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Amosa a versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taboleiro v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
		},
	})

	var addr string
	var debug bool
	webCmd := &cobra.Command{
		Use:   "web",
		Short: "Serve a UI web",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if debug {
				cfg.Server.Debug = true
				cfg.Log.Level = "debug"
				if err := logger.Init(cfg.Log); err != nil {
					return err
				}
			}
			return runWeb(cmd.Context(), cfg, logger.Get())
		},
	}
	webCmd.Flags().StringVar(&addr, "addr", "", "enderezo para o modo web (por defecto server.addr)")
	webCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.AddCommand(webCmd)

	root.AddCommand(&cobra.Command{
		Use:   "tui",
		Short: "Abre a UI de terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), cfg, logger.Get())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
