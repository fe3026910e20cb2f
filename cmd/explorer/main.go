package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ogurasousui/talent-explorer/internal/adapters/employeeapi"
	httphandler "github.com/ogurasousui/talent-explorer/internal/adapters/http/handler"
	"github.com/ogurasousui/talent-explorer/internal/adapters/http/middleware"
	"github.com/ogurasousui/talent-explorer/internal/core/employee"
	"github.com/ogurasousui/talent-explorer/internal/core/talent"
	"github.com/ogurasousui/talent-explorer/internal/platform/config"
	"github.com/ogurasousui/talent-explorer/internal/platform/server"
	"github.com/ogurasousui/talent-explorer/internal/query"
	"github.com/ogurasousui/talent-explorer/internal/ui/terminal"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	flag.Parse()

	action := "web"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfg, err := config.LoadExplorer(config.EffectivePath(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := employeeapi.NewClient(cfg.Explorer.APIBaseURL, employeeapi.WithTimeout(cfg.Explorer.RequestTimeout))

	cache := query.New[[]employee.Employee](
		query.WithStaleTime(cfg.Explorer.StaleTime),
		query.WithErrorHandler(func(key string, err error) {
			log.Printf("query %s failed: %v", key, err)
		}),
	)
	defer cache.Close()

	if err := run(ctx, action, cfg.Explorer, talent.NewEmployeesQuery(cache, client, log.Printf)); err != nil {
		log.Fatalf("explorer %s failed: %v", action, err)
	}
}

func run(ctx context.Context, action string, cfg config.ExplorerConfig, q *talent.EmployeesQuery) error {
	switch action {
	case "web":
		mux := httphandler.NewExplorerMux(
			httphandler.NewPageHandler(q, cfg.RenderWait),
			httphandler.NewRefreshHandler(q),
		)
		srv := server.NewHTTP(cfg.ListenAddr, middleware.AccessLog(log.Printf, middleware.Brotli(mux)))
		log.Printf("explorer listening on %s (api=%s)", cfg.ListenAddr, cfg.APIBaseURL)
		return srv.Run(ctx)
	case "tui":
		// ターミナル描画を乱さないよう、TUI 実行中のログは捨てる。
		log.SetOutput(io.Discard)
		model := terminal.New(q)
		defer model.Close()
		if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
