package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pribylovaa/go-servicehours-client/internal/config"
	"github.com/pribylovaa/go-servicehours-client/internal/enrollment"
	logctx "github.com/pribylovaa/go-servicehours-client/internal/pkg/log"
	"github.com/pribylovaa/go-servicehours-client/internal/session"
	"github.com/pribylovaa/go-servicehours-client/internal/storage"
	"github.com/pribylovaa/go-servicehours-client/internal/storage/memory"
	"github.com/pribylovaa/go-servicehours-client/internal/storage/sqlite"
	"github.com/pribylovaa/go-servicehours-client/internal/transport/rest"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const usage = `usage: servicehours [--config path] <command> [args]

commands:
  login <usuario> <password>        вход и сохранение сессии
  logout                            уничтожение сессии
  whoami                            текущий пользователь и срок токена
  status <project-id>               UI-статус проекта
  apply <project-id> <hours> <motivation...>
                                    подача заявки
  join <project-id>                 присоединение к открытому проекту
  leave <project-id>                выход из проекта
  watch <project-id>                фоновая сверка статуса до перехода`

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Корневой контекст по сигналам; логгер едет в контексте.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()
	rootCtx = logctx.Into(rootCtx, log)

	store, err := openStore(rootCtx, cfg.Store)
	if err != nil {
		log.Error("store_open_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	client := rest.New(cfg.API.BaseURL, cfg.API.UserAgent, cfg.API.Timeout)
	sess := session.New(store, client)
	coord := enrollment.New(sess, store, cfg.Sync.PollInterval)

	if err := run(rootCtx, args, sess, coord); err != nil {
		log.Error("command_failed",
			slog.String("command", args[0]),
			slog.String("err", err.Error()),
		)
		os.Exit(1)
	}
}

// openStore выбирает реализацию хранилища: пустой путь — in-memory,
// иначе — durable SQLite.
func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	if cfg.Path == "" {
		return memory.New(), nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return sqlite.New(openCtx, cfg.Path)
}

func run(ctx context.Context, args []string, sess *session.Manager, coord *enrollment.Coordinator) error {
	command, params := args[0], args[1:]

	switch command {
	case "login":
		if len(params) != 2 {
			return fmt.Errorf("login: expected <usuario> <password>")
		}

		s, err := sess.Login(ctx, params[0], params[1])
		if err != nil {
			return err
		}

		fmt.Printf("logged in as %s (%s)\n", s.User.DisplayName, s.User.Role)
		return nil

	case "logout":
		return sess.Logout(ctx)

	case "whoami":
		user, err := sess.CurrentUser(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s), carnet %s\n", user.DisplayName, user.Role, user.Carnet)

		if expires, err := sess.AccessExpiresAt(ctx); err == nil && !expires.IsZero() {
			fmt.Printf("access token expires at %s\n", expires.Format(time.RFC3339))
		}
		return nil

	case "status":
		projectID, err := parseProjectID(params)
		if err != nil {
			return err
		}

		fmt.Println(coord.StatusFor(ctx, projectID))
		return nil

	case "apply":
		if len(params) < 3 {
			return fmt.Errorf("apply: expected <project-id> <hours> <motivation...>")
		}

		projectID, err := strconv.ParseInt(params[0], 10, 64)
		if err != nil {
			return fmt.Errorf("apply: bad project id %q", params[0])
		}

		hours, err := strconv.Atoi(params[1])
		if err != nil {
			return fmt.Errorf("apply: bad hours %q", params[1])
		}

		app, err := coord.Apply(ctx, enrollment.ApplyInput{
			ProjectID:    projectID,
			Motivation:   strings.Join(params[2:], " "),
			HoursPerWeek: hours,
		})
		if err != nil {
			return err
		}

		fmt.Printf("application %d created, status %s\n", app.ID, app.Status)
		return nil

	case "join":
		projectID, err := parseProjectID(params)
		if err != nil {
			return err
		}

		message, err := coord.Join(ctx, projectID)
		if err != nil {
			return err
		}

		fmt.Println(message)
		return nil

	case "leave":
		projectID, err := parseProjectID(params)
		if err != nil {
			return err
		}

		message, err := coord.Leave(ctx, projectID)
		if err != nil {
			return err
		}

		fmt.Println(message)
		return nil

	case "watch":
		projectID, err := parseProjectID(params)
		if err != nil {
			return err
		}

		for status := range coord.WatchStatus(ctx, projectID) {
			fmt.Printf("project %d: %s\n", projectID, status)
		}
		return nil

	default:
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func parseProjectID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected <project-id>")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad project id %q", args[0])
	}

	return id, nil
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}

// Проверка на этапе компиляции: менеджер сессии реализует контракт координатора.
var _ enrollment.Session = (*session.Manager)(nil)
