// Package notify shows desktop notifications for job outcomes.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/bioclick/bioclick/internal/config"
	"github.com/bioclick/bioclick/internal/logging"
	"github.com/bioclick/bioclick/internal/models"
)

const appTitle = "BioClick"

// Notifier sends desktop notifications per the notification config.
// Notification failures are logged and otherwise ignored; a missing
// notification daemon must never affect a job.
type Notifier struct {
	cfg    config.NotificationConfig
	logger *logging.Logger
}

// New creates a notifier.
func New(cfg config.NotificationConfig, logger *logging.Logger) *Notifier {
	return &Notifier{cfg: cfg, logger: logger}
}

// JobCompleted notifies that a job's backend finished.
func (n *Notifier) JobCompleted(job *models.JobHandle, exitCode int) {
	if !n.cfg.Enabled || !n.cfg.ShowComplete {
		return
	}
	msg := fmt.Sprintf("%s finished", job.Name)
	if exitCode != 0 {
		msg = fmt.Sprintf("%s finished with exit code %d", job.Name, exitCode)
	}
	n.send(appTitle, msg)
}

// JobFailed notifies that a job could not run to completion.
func (n *Notifier) JobFailed(job *models.JobHandle, reason string) {
	if !n.cfg.Enabled || !n.cfg.ShowFailed {
		return
	}
	n.send(appTitle, fmt.Sprintf("%s failed: %s", job.Name, reason))
}

func (n *Notifier) send(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to show desktop notification")
	}
}
