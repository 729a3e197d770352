package config

const (
	// DefaultAPIURL is the public manga catalog service
	DefaultAPIURL = "https://mymanga-acacademy-5607149ebe3d.herokuapp.com"

	// DefaultPageSize is the number of catalog entries requested per page
	DefaultPageSize = 20
)

// Default paths for databases
const (
	// DefaultDatabasePath holds the local collection and sync history
	DefaultDatabasePath = "./mangashelf.db"

	// DefaultCredentialsDatabasePath holds the sealed session token
	DefaultCredentialsDatabasePath = "./mangashelf-credentials.db"
)
