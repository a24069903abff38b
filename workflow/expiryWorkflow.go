package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"bitbucket.org/princerto/rto_backend/models"
	"bitbucket.org/princerto/rto_backend/utils"
	"github.com/sirupsen/logrus"
)

// BuildExpiryMessage renders the customer-facing reminder in Hindi. The
// sender name at the bottom is the boss, whose credentials send the message.
func BuildExpiryMessage(registrationNo string, docLabel string, expiry time.Time, bossName string) string {
	return fmt.Sprintf(
		"प्रिय ग्राहक,\n\nआपके वाहन %s के %s की वैधता %s को समाप्त हो रही है।\n\nकृपया समय पर नवीनीकरण कराएं और जुर्माने से बचें।\n\nसंपर्क करें:\n%s",
		registrationNo, docLabel, expiry.Format("02-01-2006"), bossName)
}

type SweepStats struct {
	Bosses  int `json:"bosses"`
	Matched int `json:"matched"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// RunExpirySweep walks every active boss and every document kind, selects
// records expiring exactly lead-days ahead of asOf and sends one WhatsApp
// reminder per record. One bad record or tenant never aborts the sweep;
// failures are logged and counted.
func RunExpirySweep(ctx context.Context, logger *logrus.Logger, sender utils.WhatsAppSender, asOf time.Time) (SweepStats, error) {
	stats := SweepStats{}

	bosses, err := models.ListActiveBosses(ctx)
	if err != nil {
		return stats, err
	}
	stats.Bosses = len(bosses)

	for _, boss := range bosses {
		settings, err := models.GetNotificationSettings(ctx, boss.ID)
		if err != nil {
			config.LogError(logger, "workflow", "RunExpirySweep", "load settings",
				map[string]interface{}{"boss_id": boss.ID}, err)
			continue
		}

		for _, kind := range models.AllDocumentKinds() {
			target := utils.DateOnly(asOf).AddDate(0, 0, settings.LeadDays(kind.Kind))
			rows, err := models.FindExpiringExactly(ctx, boss.ID, kind, target)
			if err != nil {
				config.LogError(logger, "workflow", "RunExpirySweep", "query expiring",
					map[string]interface{}{"boss_id": boss.ID, "kind": kind.Kind}, err)
				continue
			}
			stats.Matched += len(rows)

			for _, row := range rows {
				if boss.WhatsappKey == "" || boss.WhatsappHost == "" {
					stats.Skipped++
					logger.WithFields(logrus.Fields{
						"boss_id":    boss.ID,
						"vehicle_no": row.RegistrationNo,
						"kind":       kind.Kind,
					}).Warn("whatsapp credentials missing, reminder skipped")
					continue
				}
				if row.MobileNumber == "" {
					stats.Skipped++
					continue
				}

				message := BuildExpiryMessage(row.RegistrationNo, kind.Label, row.ExpiryDate, boss.Name)
				err := sender.SendTextMessage(ctx, row.MobileNumber, message, boss.WhatsappKey, boss.WhatsappHost)
				if err != nil {
					stats.Failed++
					config.LogError(logger, "workflow", "RunExpirySweep", "send reminder",
						map[string]interface{}{"boss_id": boss.ID, "mobile": row.MobileNumber, "kind": kind.Kind}, err)
					continue
				}
				stats.Sent++
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"bosses":  stats.Bosses,
		"matched": stats.Matched,
		"sent":    stats.Sent,
		"failed":  stats.Failed,
		"skipped": stats.Skipped,
	}).Info("expiry sweep finished")
	return stats, nil
}

// SendExpiryReminder is the manual resend used from the expiry report screen.
func SendExpiryReminder(ctx context.Context, sender utils.WhatsAppSender, boss *models.User, row *models.ExpiringDocument, docLabel string) error {
	if boss.WhatsappKey == "" || boss.WhatsappHost == "" {
		return utils.ErrWhatsAppNotConfigured
	}
	if row.MobileNumber == "" {
		return fmt.Errorf("citizen %d has no mobile number", row.CitizenId)
	}
	message := BuildExpiryMessage(row.RegistrationNo, docLabel, row.ExpiryDate, boss.Name)
	return sender.SendTextMessage(ctx, row.MobileNumber, message, boss.WhatsappKey, boss.WhatsappHost)
}
