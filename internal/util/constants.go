package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// 默认考试参数
const (
	DefaultDurationMinutes = 60
	DefaultEasyMaxScore    = 3
	DefaultMediumMaxScore  = 6
)
