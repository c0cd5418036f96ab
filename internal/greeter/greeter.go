// Package greeter answers API Gateway requests with a greeting describing
// the caller and the host.
package greeter

import (
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
)

// Greeting is the response body returned to the caller.
type Greeting struct {
	Message         string `json:"message"`
	SourceIP        string `json:"source ip"`
	Architecture    string `json:"architecture"`
	OperatingSystem string `json:"operating system"`
}

// Handler serves the greeting.
type Handler struct {
	message string
	log     zerolog.Logger
}

// NewHandler returns a new Handler.
func NewHandler(l zerolog.Logger) *Handler {
	return &Handler{message: "hello go", log: l}
}

// Handle deals with the incoming request. The request body is ignored; the
// route carries no parameters.
func (h *Handler) Handle(request *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	ip := request.RequestContext.Identity.SourceIP
	if ip == "" {
		h.log.Warn().Msg("request context carries no source ip")
	}

	g := Greeting{
		Message:         h.message,
		SourceIP:        ip,
		Architecture:    runtime.GOARCH,
		OperatingSystem: runtime.GOOS,
	}

	body, err := json.Marshal(g)
	if err != nil {
		h.log.Error().Err(err).Msg("could not marshal greeting")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       err.Error(),
		}, nil
	}

	h.log.Info().Str("source_ip", ip).Msg("greeted caller")

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}
