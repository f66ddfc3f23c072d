package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/vibast-solutions/ms-go-identity/app/mailer"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var emailWorkerCmd = &cobra.Command{
	Use:   "email-worker",
	Short: "Consume the email queue and deliver messages over SMTP",
	Run:   runEmailWorker,
}

func init() {
	rootCmd.AddCommand(emailWorkerCmd)
}

func runEmailWorker(_ *cobra.Command, _ []string) {
	cfg, err := config.LoadWorker()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deliverer := mailer.NewDeliverer(
		mailer.NewRenderer(cfg.App.FrontendURL),
		mailer.NewSMTPSender(cfg.Email.SMTP, cfg.Email.From),
	)
	consumer := mailer.NewConsumer(cfg.Email.AMQPURL, cfg.Email.Queue, deliverer)

	logrus.WithField("queue", cfg.Email.Queue).Info("Starting email worker")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Fatal("Email worker stopped")
	}
	logrus.Info("Email worker stopped")
}
