package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"crm-dialer/internal/calls"
	"crm-dialer/model"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodySize = 1 << 20

// Returned as is when even the error document cannot be encoded.
const fallbackErrorXML = `<?xml version="1.0" encoding="UTF-8"?>
<Response><Speak>` + model.ErrorPhrase + `</Speak></Response>`

var emptyObject = json.RawMessage(`{}`)

type callService interface {
	Initiate(ctx context.Context, req *model.CallRequest) (*model.Call, error)
	ResolveAudio(ctx context.Context, token string, callID string) (string, error)
}

type server struct {
	router *mux.Router
	logger *logrus.Logger
	calls  callService
}

func newServer(calls callService, logger *logrus.Logger) *server {
	s := &server{
		router: mux.NewRouter(),
		logger: logger,
		calls:  calls,
	}

	s.configureRouter()

	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *server) configureRouter() {
	s.router.Use(s.setRequestID)
	s.router.Use(s.logRequest)
	s.router.Use(handlers.RecoveryHandler(handlers.RecoveryLogger(s.logger), handlers.PrintRecoveryStack(true)))
	s.router.Use(handlers.CORS(handlers.AllowedOrigins([]string{"*"})))

	s.router.HandleFunc("/", s.handleHealth()).Methods("GET")
	s.router.HandleFunc("/webhook/test", s.handleTestWebhook()).Methods("POST")
	s.router.HandleFunc("/webhook/crm-call", s.handleCRMCall()).Methods("POST")
	s.router.HandleFunc("/answer_call", s.handleAnswerCall()).Methods("POST")
}

func (s *server) handleHealth() http.HandlerFunc {
	type response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, r, http.StatusOK, response{
			Status:  "running",
			Message: "Plivo CRM Webhook Receiver is active",
		})
	}
}

func (s *server) handleTestWebhook() http.HandlerFunc {
	type response struct {
		Success  bool            `json:"success"`
		Received json.RawMessage `json:"received"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			s.logger.WithField("request_id", requestID(r)).Debug(err)
		}

		s.respond(w, r, http.StatusOK, response{
			Success:  true,
			Received: echoValue(body),
		})
	}
}

// Вызывается CRM. Запускает звонок на указанный номер
func (s *server) handleCRMCall() http.HandlerFunc {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		*model.Call
	}

	return func(w http.ResponseWriter, r *http.Request) {
		req := &model.CallRequest{}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			s.error(w, r, http.StatusInternalServerError, fmt.Errorf("Internal Server Error: %w", err))
			return
		}

		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, req); err != nil {
				s.error(w, r, http.StatusBadRequest, fmt.Errorf("Invalid request body: %w", err))
				return
			}
		}

		call, err := s.calls.Initiate(r.Context(), req)
		if err != nil {
			s.callError(w, r, err)
			return
		}

		s.respond(w, r, http.StatusOK, response{
			Success: true,
			Message: "Call initiated to " + call.Name,
			Call:    call,
		})
	}
}

// Вызывается Plivo, когда абонент ответил. Отдает XML с записью для проигрывания
func (s *server) handleAnswerCall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.WithField("request_id", requestID(r))

		if err := r.ParseForm(); err != nil {
			logger.WithError(err).Debug("unreadable answer callback body")
		}

		callID := r.Form.Get("RequestUUID")
		audioURL, err := s.calls.ResolveAudio(r.Context(), r.URL.Query().Get(calls.TokenParam), callID)
		if err != nil {
			logger.WithError(err).WithField("call_id", callID).Error("answer callback failed")
			s.respondXML(w, r, http.StatusInternalServerError, model.SpeakDocument(model.ErrorPhrase))
			return
		}

		logger.WithFields(logrus.Fields{"call_id": callID, "audio": audioURL}).Info("call answered")
		s.respondXML(w, r, http.StatusOK, model.PlayDocument(audioURL))
	}
}

func (s *server) callError(w http.ResponseWriter, r *http.Request, err error) {
	switch calls.KindOf(err) {
	case calls.KindValidation:
		s.error(w, r, http.StatusBadRequest, err)
	case calls.KindProvider:
		s.error(w, r, http.StatusInternalServerError, fmt.Errorf("Plivo API Error: %w", err))
	default:
		s.error(w, r, http.StatusInternalServerError, fmt.Errorf("Internal Server Error: %w", err))
	}
}

func (s *server) error(w http.ResponseWriter, r *http.Request, code int, err error) {
	type response struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}

	s.logger.WithField("request_id", requestID(r)).Error(err.Error())
	s.respond(w, r, code, response{Error: err.Error()})
}

func (s *server) respond(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (s *server) respondXML(w http.ResponseWriter, r *http.Request, code int, doc *model.CallControl) {
	b, err := doc.Marshal()
	if err != nil {
		s.logger.WithField("request_id", requestID(r)).Error(err)
		code, b = http.StatusInternalServerError, []byte(fallbackErrorXML)
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(code)
	w.Write(b)
}

// echoValue returns body when it holds a JSON value worth echoing and {} for
// empty, invalid and falsy input.
func echoValue(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return emptyObject
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return emptyObject
	}

	switch x := v.(type) {
	case nil:
		return emptyObject
	case bool:
		if !x {
			return emptyObject
		}
	case float64:
		if x == 0 {
			return emptyObject
		}
	case string:
		if x == "" {
			return emptyObject
		}
	case []interface{}:
		if len(x) == 0 {
			return emptyObject
		}
	case map[string]interface{}:
		if len(x) == 0 {
			return emptyObject
		}
	}

	return json.RawMessage(body)
}
