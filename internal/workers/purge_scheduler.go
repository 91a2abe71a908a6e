package workers

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/glowcart-dev/glowcart/internal/models"
	"github.com/glowcart-dev/glowcart/internal/otp"
)

// StartPurgeScheduler runs a periodic check (every minute) for expired OTP
// challenges due for removal. The schedule is a cron expression in the
// Config row; empty means hourly.
func StartPurgeScheduler(db *gorm.DB, otpService *otp.Service, logger zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	checkAndPurge(db, otpService, logger)

	for range ticker.C {
		checkAndPurge(db, otpService, logger)
	}
}

func checkAndPurge(db *gorm.DB, otpService *otp.Service, logger zerolog.Logger) {
	// Load the singleton config
	var config models.Config
	err := db.First(&config).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug().Msg("No config found - skipping purge check")
			return
		}
		logger.Error().Err(err).Msg("Failed to query config for purge")
		return
	}

	if config.NextPurgeAt != nil && config.NextPurgeAt.After(time.Now()) {
		logger.Debug().
			Time("next_purge_at", *config.NextPurgeAt).
			Msg("Purge not due yet")
		return
	}

	removed, err := otpService.PurgeExpired()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to purge expired verifications")
		return
	}

	if removed > 0 {
		logger.Info().Int64("removed", removed).Msg("Expired verifications purged")
	}

	now := time.Now()
	next, err := nextPurgeTime(config.OTPPurgeSchedule, now)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("schedule", config.OTPPurgeSchedule).
			Msg("Invalid purge schedule - falling back to hourly")
		next = now.Add(time.Hour)
	}

	config.LastPurgedAt = &now
	config.NextPurgeAt = &next
	if err := db.Save(&config).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to record purge timestamps")
	}
}

// nextPurgeTime computes the next run from a standard cron expression
func nextPurgeTime(schedule string, from time.Time) (time.Time, error) {
	if schedule == "" {
		return from.Add(time.Hour), nil
	}

	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.Next(from), nil
}
