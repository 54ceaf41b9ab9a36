package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./library.db"

	// DefaultDemoDatabasePath is where demo mode keeps its throwaway database
	DefaultDemoDatabasePath = "./demo/library-demo.db"

	envFileName = ".env"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
