// Command api serves the identity HTTP API.
//
//	@title						Identity API
//	@version					1.0
//	@description				Login and registration with role-scoped bearer tokens.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/99minutos/identity-api/docs"
	"github.com/99minutos/identity-api/internal/app"
	"github.com/99minutos/identity-api/internal/infrastructure/config"
	"github.com/99minutos/identity-api/pkg/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "identity-api",
		Version: version,
	})

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := application.Run(); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}
