// mockserver serves an in-memory subset of the console API and an event channel,
// for developing clients without the real backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opst/mlconsole/cmd/mockserver/handlers"
	"github.com/opst/mlconsole/pkg/configs/mockserver"
	"github.com/opst/mlconsole/pkg/utils/echoutil"
	"github.com/opst/mlconsole/pkg/utils/filewatch"
)

const apiRoot = "/api/v1"

type serverOptions struct {
	// HS256 secret. Empty means no authentication.
	secret []byte

	now     func() time.Time
	latency func() int
}

func main() {
	port := flag.Int("port", 8001, "port to listen")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	seedPath := flag.String("seed", "", "yaml file of initial data. reloaded when it is modified")
	secret := flag.String("jwt-secret", "", "when set, requests should have a HS256 bearer token signed with it")
	mint := flag.String("mint-token", "", "print a token for the subject signed with -jwt-secret, and exit")
	ttl := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token by -mint-token")
	simulate := flag.Duration("simulate", 0, "interval of simulated training progress. 0 disables simulation")
	epochs := flag.Int("epochs", 10, "epochs of each simulated training")
	flag.Parse()

	if *mint != "" {
		if *secret == "" {
			log.Fatalf("-mint-token requires -jwt-secret")
		}
		token, err := handlers.MintToken([]byte(*secret), *mint, time.Now(), *ttl)
		if err != nil {
			log.Fatalf("can not sign a token: %s", err)
		}
		fmt.Println(token)
		return
	}

	seed := mockserver.Default(time.Now())
	if *seedPath != "" {
		s, err := mockserver.LoadSeed(*seedPath, time.Now())
		if err != nil {
			log.Fatalf("can not read seed: %s", err)
		}
		seed = s
	}
	st := handlers.NewStore(seed)
	hub := handlers.NewHub()

	e := newServer(st, hub, serverOptions{
		secret:  []byte(*secret),
		now:     time.Now,
		latency: func() int { return 20 + rand.IntN(100) },
	})
	echoutil.SetLevel(e, *loglevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *seedPath != "" {
		go func() {
			err := filewatch.OnChange(
				ctx, *seedPath,
				func() error {
					s, err := mockserver.LoadSeed(*seedPath, time.Now())
					if err != nil {
						return err
					}
					st.Reset(s)
					e.Logger.Infof("seed is reloaded: %s", *seedPath)
					return nil
				},
				func(err error) { e.Logger.Warnf("seed is not reloaded: %s", err) },
			)
			if err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("can not watch seed: %s", err)
			}
		}()
	}

	if 0 < *simulate {
		sim := handlers.NewSimulator(hub, *epochs, time.Now, e.Logger)
		go sim.Run(ctx, *simulate)
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	if err := e.Start(fmt.Sprintf(":%d", *port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}

func newServer(st *handlers.Store, hub *handlers.Hub, opts serverOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())

	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	auth := []echo.MiddlewareFunc{}
	if len(opts.secret) != 0 {
		auth = append(auth, handlers.BearerAuth(opts.secret))
	}

	api := e.Group(apiRoot, auth...)
	{
		id := "id"
		api.GET("/reports", handlers.ListReportsHandler(st))
		api.POST("/reports", handlers.CreateReportHandler(st, opts.now))
		api.GET("/reports/:id", handlers.GetReportHandler(st, id))
		api.PUT("/reports/:id", handlers.UpdateReportHandler(st, id))
		api.DELETE("/reports/:id", handlers.DeleteReportHandler(st, id))
		api.POST("/reports/:id/publish", handlers.PublishReportHandler(st, id, opts.now))
		api.GET("/reports/:id/export", handlers.ExportReportHandler(st, id))
	}
	{
		api.GET("/settings/system", handlers.GetSystemHandler(st))
		api.PUT("/settings/system", handlers.PutSystemHandler(st))
		api.GET("/settings/preferences", handlers.GetPreferencesHandler(st))
		api.PUT("/settings/preferences", handlers.PutPreferencesHandler(st))
		api.POST("/settings/test-connection", handlers.TestConnectionHandler(opts.latency))
	}
	api.RouteNotFound("/*", handlers.NotFoundHandler)

	e.GET("/ws", hub.Handler(), auth...)
	e.RouteNotFound("/*", handlers.NotFoundHandler)
	return e
}
