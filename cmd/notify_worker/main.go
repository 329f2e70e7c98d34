package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/capsulevault/timecapsule/config"
	pginfra "github.com/capsulevault/timecapsule/internal/infrastructure/postgres"
	"github.com/capsulevault/timecapsule/internal/notify"
	"github.com/capsulevault/timecapsule/pkg/helpers"
	"github.com/capsulevault/timecapsule/pkg/mailer"
)

// The worker runs three loops: the mover polls the redis schedule and pushes
// due one-shot jobs onto the queue, the sweeper re-enqueues anything past its
// unlock date on a fixed interval, and the consumer fires notifications.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-worker", cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	capsules := pginfra.NewCapsuleRepository(pool)

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQNotifyQueue)
	if err != nil {
		log.Fatalf("amqp publisher: %v", err)
	}
	defer pub.Close()

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()
	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQNotifyQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQNotifyQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	var mail notify.MailSender
	if cfg.MailSendEnabled && cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" && cfg.MailgunSender != "" {
		mail = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
		logger.Info("mail channel enabled")
	}

	scheduler := notify.NewScheduler(rdb, logger)
	notifier := notify.NewNotifier(capsules, rdb, logger, mail)
	sweeper := notify.NewSweeper(capsules, pub, logger, cfg.SweepInterval)

	// Mover: drain due one-shot jobs from the schedule onto the queue.
	go func() {
		t := time.NewTicker(cfg.SchedulePollEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				jobs, err := scheduler.PopDue(ctx, time.Now().UTC())
				if err != nil {
					logger.WithError(err).Error("schedule poll failed")
					continue
				}
				for _, job := range jobs {
					if err := pub.PublishJSON(ctx, job); err != nil {
						logger.WithError(err).WithField("capsule_id", job.CapsuleID).Error("enqueue failed, rescheduling")
						// Put it back so a broker outage only delays delivery.
						if rerr := scheduler.ScheduleOnce(ctx, job, time.Now()); rerr != nil {
							logger.WithError(rerr).Error("reschedule failed, job lost until next sweep")
						}
					}
				}
			}
		}
	}()

	// Sweeper: at-least-once catch-up for missed one-shot jobs.
	go sweeper.Run(ctx)

	done := make(chan struct{})
	go func() {
		for msg := range msgs {
			var job notify.Job
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				logger.WithError(err).Warn("bad message")
				_ = msg.Nack(false, false)
				continue
			}
			c, cancelJob := context.WithTimeout(ctx, 15*time.Second)
			if err := notifier.Handle(c, job); err != nil {
				cancelJob()
				logger.WithError(err).WithField("capsule_id", job.CapsuleID).Error("notification failed")
				_ = msg.Nack(false, true)
				continue
			}
			cancelJob()
			_ = msg.Ack(false)
		}
		close(done)
	}()

	logger.Infof("notification worker listening on queue=%s", cfg.RabbitMQNotifyQueue)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down...")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
