package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Expired emails and accounts, every five minutes
	CronScheduleRetention string `env:"CRON_SCHEDULE_RETENTION" envDefault:"0 */5 * * * *"`
	// Emails loaded per sweep batch
	RetentionBatchSize int `env:"CRON_RETENTION_BATCH_SIZE" envDefault:"500"`
}
