package constants

import "time"

const (
	AppName            = "habitstore"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitstore/habitstore.db"
	Version            = "v0.1.0"

	// DateFormat is the format of every completed date (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// HabitsTable is the only table observed for changes
	HabitsTable = "habits"

	// CompletedDatesSeparator joins completed dates into one column
	CompletedDatesSeparator = ","

	// PostgresNotifyChannel carries cross-process change notifications
	PostgresNotifyChannel = "habits_changed"

	// SQLite connection settings
	SQLiteBusyTimeoutMs = 5000
	// SQLitePollInterval is how often commits from other processes are checked
	SQLitePollInterval  = 500 * time.Millisecond

	// PostgreSQL connection pool and listener settings
	PostgresMaxOpenConns     = 25
	PostgresMaxIdleConns     = 25
	PostgresConnMaxLifetime  = 5 * time.Minute
	ListenerMinReconnectWait = 10 * time.Second
	ListenerMaxReconnectWait = time.Minute
	ListenerPingInterval     = 90 * time.Second

	// Statistics windows
	WeeklyWindowDays   = 7
	RiskWindowWeeks    = 4
	RiskMinDataPoints  = 2
	RiskMissRateCutoff = 0.5

	// Coaching thresholds and cache retention
	NudgeHotStreak        = 7
	NudgeStreak           = 3
	InsightStrongScore    = 80
	InsightHalfwayScore   = 50
	CoachingRetentionDays = 30
)
