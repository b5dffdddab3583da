package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	taskguard "github.com/goliatone/go-taskguard"
	"github.com/goliatone/go-taskguard/cmd/taskd/config"
	"github.com/goliatone/go-taskguard/middleware/jwtware"
	"github.com/goliatone/go-taskguard/tasks"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	auther taskguard.Authenticator
	repo   taskguard.RepositoryManager
	srv    *fiber.App
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("taskd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	go func() {
		if err := app.srv.Listen(app.Config().GetApp().Address()); err != nil {
			app.GetLogger("server").Error("server stopped", "error", err)
		}
	}()

	WaitExitSignal()

	if err := app.srv.Shutdown(); err != nil {
		app.GetLogger("server").Error("shutdown", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		log.Fatal(err)
		return err
	}

	persistence.RegisterModel((*taskguard.User)(nil))
	persistence.RegisterModel((*tasks.Task)(nil))

	cfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(taskguard.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	client.RegisterFixtures(fixturesFS).AddOptions(persistence.WithTrucateTables())

	if err := client.Seed(ctx); err != nil {
		return err
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		fmt.Printf("report: %s\n", report.String())
	}

	app.bunDB = client.DB()
	app.repo = taskguard.NewRepositoryManager(client.DB())
	app.repo.MustValidate()

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	authCfg := app.Config().GetAuth()

	userProvider := taskguard.NewUserProvider(app.repo.Users()).
		WithLogger(app.GetLogger("auth:prv"))

	authenticator := taskguard.NewAuthenticator(userProvider, authCfg).
		WithLogger(app.GetLogger("auth:authn"))

	app.auther = authenticator

	srv := fiber.New(fiber.Config{
		AppName:           app.Config().GetApp().Name,
		EnablePrintRoutes: true,
	})

	taskguard.RegisterAuthRoutes(srv, func(ac *taskguard.AuthController) *taskguard.AuthController {
		ac.Repo = app.repo
		ac.Auther = app.auther
		return ac.WithLogger(app.GetLogger("auth:ctrl"))
	})

	protected := srv.Group("/", jwtware.New(jwtware.Config{
		TokenValidator: authenticator.TokenService(),
		ContextKey:     authCfg.GetContextKey(),
		TokenLookup:    authCfg.GetTokenLookup(),
		AuthScheme:     authCfg.GetAuthScheme(),
	}))

	taskService := tasks.NewService(
		tasks.NewRepository(app.bunDB),
		app.GetLogger("tasks:svc"),
	)

	tasks.RegisterRoutes(protected,
		tasks.WithService(taskService),
		tasks.WithLogger(app.GetLogger("tasks:ctrl")),
	)

	app.srv = srv

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
