package calls

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"crm-dialer/internal/plivo"
	"crm-dialer/internal/store"
	"crm-dialer/model"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// TokenParam is the answer URL query parameter that carries the signed audio URL.
const TokenParam = "token"

// Dialer places outbound calls. *plivo.Client implements it.
type Dialer interface {
	CreateCall(ctx context.Context, params plivo.CallParams) (*plivo.CallResponse, error)
}

// Tokens signs and verifies the per-call answer token.
type Tokens interface {
	NewAudioToken(audioURL string, ttl time.Duration) (string, error)
	ParseAudioToken(token string) (string, error)
}

type Config struct {
	From            string
	AnswerURL       string
	DefaultAudioURL string
	TokenTTL        time.Duration
}

type Service struct {
	dialer Dialer
	store  store.Store
	tokens Tokens
	config Config
	logger logrus.FieldLogger
}

func NewService(dialer Dialer, store store.Store, tokens Tokens, config Config, logger logrus.FieldLogger) *Service {
	return &Service{
		dialer: dialer,
		store:  store,
		tokens: tokens,
		config: config,
		logger: logger,
	}
}

// Initiate validates req, places the call and returns it. The audio URL
// travels with the call inside its answer URL.
func (s *Service) Initiate(ctx context.Context, req *model.CallRequest) (*model.Call, error) {
	req.Normalize(s.config.DefaultAudioURL)

	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	answerURL, err := s.answerURL(req.AudioURL)
	if err != nil {
		return nil, internalError(err)
	}

	resp, err := s.dialer.CreateCall(ctx, plivo.CallParams{
		From:         s.config.From,
		To:           req.Phone,
		AnswerURL:    answerURL,
		AnswerMethod: http.MethodPost,
	})
	if err != nil {
		return nil, providerError(err)
	}

	if err := s.store.Audio().Save(resp.RequestUUID, req.AudioURL); err != nil {
		s.logger.WithError(err).WithField("call_id", resp.RequestUUID).Warn("failed to remember call audio")
	}

	s.logger.WithFields(logrus.Fields{
		"call_id": resp.RequestUUID,
		"phone":   req.Phone,
		"audio":   req.AudioURL,
	}).Info("call initiated")

	return &model.Call{
		ID:       resp.RequestUUID,
		Phone:    req.Phone,
		Name:     req.Name,
		AudioURL: req.AudioURL,
	}, nil
}

// ResolveAudio picks the recording for an answer callback: the signed token
// first, then the call id lookup, then the configured default.
func (s *Service) ResolveAudio(ctx context.Context, token string, callID string) (string, error) {
	if token != "" {
		audioURL, err := s.tokens.ParseAudioToken(token)
		if err == nil {
			return audioURL, nil
		}
		s.logger.WithError(err).WithField("call_id", callID).Warn("ignoring answer token")
	}

	if callID != "" {
		audioURL, err := s.store.Audio().Find(callID)
		switch {
		case err == nil:
			return audioURL, nil
		case !errors.Is(err, store.ErrRecordNotFound):
			return "", internalError(eris.Wrap(err, "failed to look up call audio"))
		}
	}

	return s.config.DefaultAudioURL, nil
}

func (s *Service) answerURL(audioURL string) (string, error) {
	u, err := url.Parse(s.config.AnswerURL)
	if err != nil {
		return "", eris.Wrap(err, "invalid answer url")
	}

	token, err := s.tokens.NewAudioToken(audioURL, s.config.TokenTTL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set(TokenParam, token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
