package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pohangsanhak/calendar/internal/daterange"
	"github.com/pohangsanhak/calendar/internal/logger"
	"github.com/pohangsanhak/calendar/internal/rabbit"
	"github.com/pohangsanhak/calendar/internal/storage"
	"github.com/pohangsanhak/calendar/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/scheduler_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func newMessage(event storage.Event) rabbit.Message {
	return rabbit.Message{
		EventID:  event.ID,
		GroupID:  event.GroupID,
		Date:     daterange.FormatDate(event.Date),
		Business: strOrEmpty(event.Business),
		Course:   strOrEmpty(event.Course),
		Time:     strOrEmpty(event.Time),
		Place:    strOrEmpty(event.Place),
		Admin:    strOrEmpty(event.Admin),
	}
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer r.Close()

	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		stor.Close(ctx)
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	checkTicker := time.NewTicker(config.Scheduler.CheckInterval)
	defer checkTicker.Stop()

	// One reminder batch per calendar day, for the next day's events.
	var lastSent string
	for {
		tomorrow := daterange.TruncateToDay(time.Now().UTC()).AddDate(0, 0, 1)
		day := daterange.FormatDate(tomorrow)
		if day != lastSent {
			events, err := stor.ListEvents(ctx, tomorrow, tomorrow, "")
			if err != nil {
				log.Errorf("failed to get events: %s", err)
			} else {
				for _, event := range events {
					log.Debugf("send reminder for event %d on %s", event.ID, day)
					if err := r.PublishMessage(newMessage(event)); err != nil {
						log.Errorf("failed to publish reminder: %s", err)
					}
				}
				lastSent = day
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-checkTicker.C:
		}
	}
}
