package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Mailbox cache sync, every 15 minutes
	CronScheduleSyncMailboxes string `env:"CRON_SCHEDULE_SYNC_MAILBOXES" envDefault:"0 */15 * * * *"`
	// Alias cache sync, every hour
	CronScheduleSyncAliases string `env:"CRON_SCHEDULE_SYNC_ALIASES" envDefault:"0 0 * * * *"`
	// Domain cache sync, every hour at half past
	CronScheduleSyncDomains string `env:"CRON_SCHEDULE_SYNC_DOMAINS" envDefault:"0 30 * * * *"`
}
