package output

// Code represents a structured error or warning code.
// These are stable string identifiers for machine-readable error handling.
type Code string

// Error codes - grouped by category
const (
	// General errors
	CodeGeneralError    Code = "GENERAL_ERROR"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeOperationFailed Code = "OPERATION_FAILED"
	CodeUsageError      Code = "USAGE_ERROR"
	CodeUserCancelled   Code = "USER_CANCELLED"
	CodeNoTerminal      Code = "NO_TERMINAL"

	// Environment errors (pre-flight)
	CodeUnsupportedPlatform Code = "UNSUPPORTED_PLATFORM"
	CodeMissingTool         Code = "MISSING_TOOL"

	// Config errors
	CodeConfigInvalid    Code = "CONFIG_INVALID"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"

	// Keyring errors
	CodeGPGError          Code = "GPG_ERROR"
	CodeGPGKeyNotFound    Code = "GPG_KEY_NOT_FOUND"
	CodeGPGImportFailed   Code = "GPG_IMPORT_FAILED"
	CodeGPGGenerateFailed Code = "GPG_GENERATE_FAILED"
	CodeGPGExportFailed   Code = "GPG_EXPORT_FAILED"
	CodeGPGNoSecretKey    Code = "GPG_NO_SECRET_KEY"

	// Identity source errors
	CodeSourceNotAuthenticated Code = "SOURCE_NOT_AUTHENTICATED"
	CodeSourceUnavailable      Code = "SOURCE_UNAVAILABLE"
	CodeSourceNoCandidates     Code = "SOURCE_NO_CANDIDATES"
	CodeUploadFailed           Code = "UPLOAD_FAILED"

	// Git configuration errors
	CodeGitConfigError Code = "GIT_CONFIG_ERROR"

	// Fingerprint validation errors
	CodeFingerprintInvalid Code = "FINGERPRINT_INVALID"
	CodeFingerprintShort   Code = "FINGERPRINT_SHORT"

	// Key selection errors
	CodeNoSuitableKey Code = "NO_SUITABLE_KEY"

	// Backup/rollback errors
	CodeBackupFailed   Code = "BACKUP_FAILED"
	CodeRollbackFailed Code = "ROLLBACK_FAILED"
)
