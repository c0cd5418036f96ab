// Function greeter registers a no-op internal extension and serves the
// greeting API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/nimbleops/greeter/internal/config"
	"github.com/nimbleops/greeter/internal/extension"
	"github.com/nimbleops/greeter/internal/greeter"
	xlog "github.com/nimbleops/greeter/internal/log"
)

var h *greeter.Handler

func init() {
	cfg := config.FromEnv()
	xlog.Configure(xlog.Config{Level: cfg.LogLevel, Service: cfg.FunctionName})
	h = greeter.NewHandler(xlog.WithComponent("greeter"))
}

func handler(req *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.Handle(req)
}

func main() {

	logger := xlog.WithComponent("runtime")
	cfg := config.FromEnv()

	// The sandbox only delivers SIGTERM to a process with a registered
	// extension. Registration must finish before lambda.Start ends the
	// init phase.
	if cfg.RuntimeAPI != "" {
		ext, err := extension.NewClient(cfg.RuntimeAPI, "no-op")
		if err != nil {
			logger.Fatal().Err(err).Msg("could not make extension client")
		}
		if err := ext.Register(context.Background(), nil); err != nil {
			logger.Fatal().Err(err).Msg("could not register extension")
		}
		logger.Info().Str("extension_id", ext.ID()).Msg("registered no-op extension")
	}

	go watchSignals(logger)

	lambda.Start(handler)
}

// watchSignals exits the process cleanly on SIGINT or SIGTERM.
func watchSignals(logger zerolog.Logger) {

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	s := <-sigs
	logger.Info().Str("signal", s.String()).Msg("graceful shutdown in progress")
	logger.Info().Msg("graceful shutdown completed")
	os.Exit(0)
}
