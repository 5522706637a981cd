package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/nhatem/pollumap/internal/db"
	"github.com/nhatem/pollumap/internal/models"
	"github.com/nhatem/pollumap/internal/routes"
	"github.com/nhatem/pollumap/internal/session"
	"github.com/nhatem/pollumap/internal/uploads"
)

const usage = `Usage:
	- start
	- migrate [up/down/drop]
`

func main() {
	if len(os.Args) == 1 {
		fmt.Println(usage)
		return
	}
	envConfig := models.ReadEnvConfig()
	switch os.Args[1] {
	case "start":
		server := PollumapServer{EnvConfig: envConfig}
		server.Setup()
		server.Run()
	case "migrate":
		if len(os.Args) < 3 {
			fmt.Println(usage)
			return
		}
		var err error
		switch os.Args[2] {
		case "up":
			err = db.MigrateUp(envConfig.DatabasePath)
		case "down":
			err = db.MigrateDown(envConfig.DatabasePath)
		case "drop":
			err = db.Drop(envConfig.DatabasePath)
		default:
			fmt.Println(usage)
			return
		}
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println("Done")
	default:
		fmt.Println(usage)
	}
}

type PollumapServer struct {
	models.EnvConfig
	addr       string
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	database   db.SharedDB
	uploads    *uploads.Store
	sessions   *session.Tracker
}

func (server *PollumapServer) setupLogger() {
	var writer io.Writer
	if server.Debug {
		writer = zerolog.ConsoleWriter{Out: os.Stdout}
	} else {
		writer = os.Stdout
	}
	log := zerolog.New(writer).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	server.logger = log
}
func (server *PollumapServer) setupUploads() {
	store, err := uploads.NewStore(server.UploadDir)
	if err != nil {
		server.logger.Fatal().Err(err).Send()
	}
	server.uploads = store
}
func (server *PollumapServer) setupDB() {
	err := db.MigrateUp(server.DatabasePath)
	if err != nil {
		server.logger.Fatal().Err(err).Send()
	}
	database, err := db.Connect(&server.EnvConfig, server.uploads)
	if err != nil {
		server.logger.Fatal().AnErr("Connecting to db", err).Send()
	}
	server.database = database
}
func (server *PollumapServer) setupSessions() {
	server.sessions = session.NewTracker()
}
func (server *PollumapServer) setupRouter() {
	server.router = routes.NewRouter(&server.EnvConfig, &server.database, server.logger, server.sessions)
}
func (server *PollumapServer) setupHttpServer() {
	server.addr = fmt.Sprintf(":%s", server.EnvConfig.Port)
	server.httpServer = &http.Server{
		Addr:         server.addr,
		Handler:      server.router,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 1 * time.Minute,
	}
}
func (server *PollumapServer) Setup() {
	server.setupLogger()
	server.setupUploads()
	server.setupDB()
	server.setupSessions()
	server.setupRouter()
	server.setupHttpServer()
}
func (server *PollumapServer) Shutdown() {
	if err := server.httpServer.Shutdown(context.Background()); err != nil {
		server.logger.Error().
			Err(err).
			Msg("Error shutting down")
	}
	if err := server.database.Close(); err != nil {
		server.logger.Error().
			Err(err).
			Msg("Error closing database")
	}
}
func (server *PollumapServer) Run() {
	server.logger.Info().Str("server_address", server.addr).Msg("Server is starting")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go server.httpServer.ListenAndServe()
	server.logger.Info().Msg("Ready")

	<-ctx.Done()
	stop() // Stop listening for signals
	server.logger.Info().Msg("Shutting down gracefully")
	server.Shutdown()
}
