// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to keepsake lives: the MongoDB
// connection, the export API key, and the blob storage backend.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// API key authentication (for external export consumers)
	// When set, enables Bearer token authentication for /api/export routes.
	// Leave empty to reject all export requests.
	APIKey string

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// S3-compatible storage configuration (only used if StorageType is "s3").
	// Endpoint and path-style access support R2/MinIO style providers.
	StorageS3Region    string // AWS region
	StorageS3Bucket    string // S3 bucket name
	StorageS3Prefix    string // Key prefix (e.g., "keepsake/")
	StorageS3Endpoint  string // Custom endpoint for S3-compatible providers
	StorageS3AccessKey string // Static access key (blank uses the default chain)
	StorageS3SecretKey string // Static secret key
	StorageS3PublicURL string // Public base URL for serving stored objects
}
