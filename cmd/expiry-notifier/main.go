// expiry-notifier runs the daily document-expiry sweep and exits.
// Intended to be scheduled (cron, systemd timer); the redis lock keeps
// overlapping runs from double-sending.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/utils"
	"bitbucket.org/princerto/rto_backend/workflow"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	logger := config.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	defer func() {
		if rdb := config.GetRedisDB(); rdb != nil {
			_ = rdb.Close()
		}
	}()

	release, err := utils.SweepLock(ctx, "expiry", 10*time.Minute)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "expiry-notifier"}).
			Warn("another sweep is running, exiting: " + err.Error())
		return
	}
	defer release()

	stats, err := workflow.RunExpirySweep(ctx, logger, utils.NewWhatsAppSender(), time.Now())
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "expiry-notifier"}).
			Error("sweep failed: " + err.Error())
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"bosses":  stats.Bosses,
		"matched": stats.Matched,
		"sent":    stats.Sent,
		"failed":  stats.Failed,
		"skipped": stats.Skipped,
	}).Info("expiry sweep finished")
}
