package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/pkg/serverutils"
	"speech-rehearsal-be/internal/repository/memory"
	"speech-rehearsal-be/internal/service"
	"speech-rehearsal-be/internal/websocket"
	"speech-rehearsal-be/pkg/analysisengine"
	"speech-rehearsal-be/pkg/media"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	app         *fiber.App
	engineCalls atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{}

	engine := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.engineCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/analyze_transcript/":
			w.Write([]byte(`{"speech_rate_wpm": 128, "filler_words": {"um": 2}}`))
		case "/analyze_body_language/":
			w.Write([]byte(`{"pros": [{"timestamp": "00:03", "description": "Steady eye contact"}], "cons": []}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(engine.Close)

	log := logger.NewNopLogger()
	uowFactory := memory.NewRepositoryFactory(memory.NewStore())
	sessions := memory.NewSessionRepository()
	events := service.NewEventPublisher(nil, log)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })
	publisher := service.NewPublisherService("speech.recompute", pubSub)

	speechService := service.NewSpeechService(uowFactory, events, log)
	rehearsalService := service.NewRehearsalService(uowFactory, publisher, events, media.NewCloudinaryUploader("", ""), time.Second, log)
	analysisService := service.NewAnalysisService(
		uowFactory,
		analysisengine.NewClient(engine.URL),
		websocket.NewHub(nil, "test", log),
		events,
		5*time.Second,
		log,
	)
	wizardService := service.NewWizardService(uowFactory, speechService, rehearsalService, sessions, log)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewHealthController(nil).RegisterRoutes(app)
	NewSpeechController(speechService).RegisterRoutes(app)
	NewRehearsalController(rehearsalService, analysisService).RegisterRoutes(app)
	NewWizardController(wizardService, sessions, testSecret, log).RegisterRoutes(app)

	ts.app = app
	return ts
}

// do sends a JSON request and decodes the response body into out when given.
func (ts *testServer) do(t *testing.T, method, path string, body interface{}, out interface{}, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := ts.app.Test(req, 5000)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type errorBody struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
