package snapshot

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Autosaver periodically exports the configuration and ships it to the
// archive on a cron schedule.
type Autosaver struct {
	manager  *Manager
	archiver *S3Archiver
	schedule string
	logger   *logrus.Logger
	cron     *cron.Cron
}

// NewAutosaver creates an autosaver. schedule is a standard five-field cron
// expression, e.g. "0 * * * *" for hourly.
func NewAutosaver(manager *Manager, archiver *S3Archiver, schedule string, logger *logrus.Logger) *Autosaver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Autosaver{
		manager:  manager,
		archiver: archiver,
		schedule: schedule,
		logger:   logger,
	}
}

// Start schedules the autosave job and starts the cron runner.
func (a *Autosaver) Start() error {
	c := cron.New()
	_, err := c.AddFunc(a.schedule, a.run)
	if err != nil {
		return err
	}
	a.cron = c
	c.Start()
	a.logger.WithFields(logrus.Fields{
		"component": "snapshot",
		"schedule":  a.schedule,
	}).Info("snapshot autosave started")
	return nil
}

// Stop stops the cron runner and waits for a running save to finish.
func (a *Autosaver) Stop() {
	if a.cron == nil {
		return
	}
	<-a.cron.Stop().Done()
}

func (a *Autosaver) run() {
	ctx := context.Background()
	log := a.logger.WithField("component", "snapshot")

	snap, err := a.manager.Export(ctx)
	if err != nil {
		log.WithError(err).Error("autosave export failed")
		return
	}
	key, err := a.archiver.Archive(ctx, snap)
	if err != nil {
		log.WithError(err).Error("autosave archive failed")
		return
	}
	log.WithFields(logrus.Fields{
		"key":    key,
		"groups": len(snap.Groups),
		"roles":  len(snap.Roles),
	}).Info("configuration snapshot archived")
}
