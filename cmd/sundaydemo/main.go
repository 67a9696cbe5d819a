// Command sundaydemo stands up a small local REST+SSE fixture server with
// gin, then drives it with a sunday.Client to exercise the adapter chain,
// content negotiation, and the SSE typed event stream end to end.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/outfoxx-sunday/sunday"
	"github.com/outfoxx-sunday/sunday/adapter"
	"github.com/outfoxx-sunday/sunday/internal/config"
	"github.com/outfoxx-sunday/sunday/internal/logging"
	"github.com/outfoxx-sunday/sunday/mediatype"
	"github.com/outfoxx-sunday/sunday/sse"
)

type echoRequest struct {
	Message string `json:"message"`
}

type echoResponse struct {
	Message string `json:"message"`
	Greeted string `json:"greeted"`
}

func newFixtureServer() *httptest.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.POST("/echo/:name", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer demo-token" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"type": "about:blank", "title": "Unauthorized", "status": http.StatusUnauthorized,
			})
			return
		}
		var body echoRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"type": "about:blank", "title": "Bad Request", "status": http.StatusBadRequest,
			})
			return
		}
		c.JSON(http.StatusOK, echoResponse{Message: body.Message, Greeted: c.Param("name")})
	})

	r.GET("/events", func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		flusher, _ := c.Writer.(http.Flusher)
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(c.Writer, "id: %d\nevent: tick\ndata: {\"n\":%d}\n\n", i, i)
			if flusher != nil {
				flusher.Flush()
			}
			time.Sleep(20 * time.Millisecond)
		}
	})

	return httptest.NewServer(r)
}

type tick struct {
	N int `json:"n"`
}

func main() {
	logging.Setup()

	cfgPath := "sundaydemo.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	defaults, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	srv := newFixtureServer()
	defer srv.Close()

	baseURI := defaults.BaseURI
	if baseURI == "" {
		baseURI = srv.URL
	}

	token := defaults.BearerToken
	if token == "" {
		token = "demo-token"
	}

	cfg := sunday.DefaultConfig()
	cfg.Timeout = defaults.RequestTimeout
	cfg.Adapters = []adapter.Adapter{
		&adapter.HeaderTokenAuthorizing{Token: token},
	}

	client, err := sunday.NewClient(baseURI, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build client")
	}

	ctx := context.Background()

	req, err := client.BuildRequest(ctx, http.MethodPost, "/echo/{name}",
		sunday.WithPathParams(map[string]any{"name": "world"}),
		sunday.WithBody(echoRequest{Message: "hello"}),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to build echo request")
	}

	result, err := sunday.Result[echoResponse](ctx, client, req)
	if err != nil {
		log.WithError(err).Fatal("echo request failed")
	}
	log.Infof("echo: %s -> %s", result.Message, result.Greeted)

	sseReq, err := client.BuildRequest(ctx, http.MethodGet, "/events")
	if err != nil {
		log.WithError(err).Fatal("failed to build sse request")
	}

	jsonDecoder, err := cfg.Decoders.Find(mediatype.JSON)
	if err != nil {
		log.WithError(err).Fatal("no json decoder registered")
	}

	done := make(chan struct{})
	var received int
	typed := sse.NewTypedStream(map[string]sse.Decoder[tick]{
		"tick": sse.JSONDecoder[tick](jsonDecoder.Decode),
	})
	typed.OnTypedEvent = func(ev sse.TypedEvent[tick]) {
		received++
		log.Infof("sse event %s (id=%s): n=%d", ev.Type, ev.LastEventID, ev.Payload.N)
		if received >= 3 {
			close(done)
		}
	}
	typed.OnDecodeError = func(ev sse.Event, err error) {
		log.WithError(err).Warn("sse decode failed")
	}

	es := client.EventSource(sseReq, typed.Listener(sse.Listener{}))
	es.Start(ctx)
	defer es.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		log.Warn("timed out waiting for sse events")
	}
}
