package apiserver

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-dialer/internal/calls"
	"crm-dialer/internal/plivo"
	"crm-dialer/internal/store/memstore"
	"crm-dialer/internal/token"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Запуск сервера
func Start(config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return err
	}

	secret := config.CallbackSecret
	if secret == "" {
		if secret, err = token.NewSigningKey(); err != nil {
			return err
		}
		logger.Warn("callback_secret is not set, answer tokens will not survive a restart")
	}

	client := plivo.NewClient(config.PlivoAuthID, config.PlivoAuthToken, config.PlivoAPIURL, config.providerTimeout())
	svc := calls.NewService(client, memstore.New(config.callbackTTL()), token.New(secret), calls.Config{
		From:            config.PlivoPhone,
		AnswerURL:       config.AnswerURL,
		DefaultAudioURL: config.RecordedMessageURL,
		TokenTTL:        config.callbackTTL(),
	}, logger)

	srv := &http.Server{
		Addr:         config.BindAddr,
		Handler:      newServer(svc, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: config.providerTimeout() + 10*time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		sig := <-stop
		logger.Infof("received %s, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error(err)
		}
	}()

	logger.WithField("addr", config.BindAddr).Info("SERVER IS RUNNING")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger.SetLevel(lvl)
	return logger, nil
}
