package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (K001-K019)
	// ============================================

	"K001": {
		Category: CategoryRuntime,
		Message:  "Session not found",
		Detail:   "The session ID is invalid or the session has been closed.",
		DocURL:   "https://kinet.dev/docs/errors/K001",
	},
	"K002": {
		Category: CategoryRuntime,
		Message:  "Session expired",
		Detail:   "The session's resume window elapsed before the client reconnected.",
		DocURL:   "https://kinet.dev/docs/errors/K002",
	},
	"K003": {
		Category: CategoryRuntime,
		Message:  "Handler not found",
		Detail:   "No handler is bound for this element and event. The component may have re-rendered with different handlers.",
		DocURL:   "https://kinet.dev/docs/errors/K003",
	},
	"K004": {
		Category: CategoryRuntime,
		Message:  "Component factory not registered",
		Detail:   "No factory is registered under this descriptor in the session's registry or any parent scope.",
		DocURL:   "https://kinet.dev/docs/errors/K004",
	},
	"K005": {
		Category: CategoryRuntime,
		Message:  "Element not attached",
		Detail:   "The component's element handle is used before mounting or after disposal.",
		DocURL:   "https://kinet.dev/docs/errors/K005",
	},
	"K006": {
		Category: CategoryRuntime,
		Message:  "Event queue full",
		Detail:   "The session's event queue overflowed. The client is sending events faster than handlers drain them.",
		DocURL:   "https://kinet.dev/docs/errors/K006",
	},
	"K007": {
		Category: CategoryRuntime,
		Message:  "Session limit reached",
		Detail:   "The server is at its configured maximum number of live sessions.",
		DocURL:   "https://kinet.dev/docs/errors/K007",
	},

	// ============================================
	// Protocol Errors (K020-K039)
	// ============================================

	"K020": {
		Category: CategoryProtocol,
		Message:  "WebSocket handshake failed",
		Detail:   "The connection did not complete the hello/resume exchange.",
		DocURL:   "https://kinet.dev/docs/errors/K020",
	},
	"K021": {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
		Detail:   "A binary frame could not be decoded. The client and server protocol versions may be mismatched.",
		DocURL:   "https://kinet.dev/docs/errors/K021",
	},
	"K022": {
		Category: CategoryProtocol,
		Message:  "Unknown event type",
		Detail:   "The event opcode is not recognized by the server.",
		DocURL:   "https://kinet.dev/docs/errors/K022",
	},
	"K023": {
		Category: CategoryProtocol,
		Message:  "Unknown patch opcode",
		Detail:   "The patch opcode is not recognized by the client.",
		DocURL:   "https://kinet.dev/docs/errors/K023",
	},
	"K024": {
		Category: CategoryProtocol,
		Message:  "Protocol version mismatch",
		Detail:   "The client and server are using incompatible protocol versions.",
		DocURL:   "https://kinet.dev/docs/errors/K024",
	},

	// ============================================
	// Asset Errors (K040-K059)
	// ============================================

	"K040": {
		Category: CategoryAssets,
		Message:  "Invalid asset key",
		Detail:   "Asset keys must be clean relative paths that stay inside the store.",
		DocURL:   "https://kinet.dev/docs/errors/K040",
	},
	"K041": {
		Category: CategoryAssets,
		Message:  "Asset too large",
		Detail:   "The asset exceeds the store's configured size limit.",
		DocURL:   "https://kinet.dev/docs/errors/K041",
	},
	"K042": {
		Category: CategoryAssets,
		Message:  "Asset not found",
		Detail:   "No object exists under this key in the store.",
		DocURL:   "https://kinet.dev/docs/errors/K042",
	},
	"K043": {
		Category: CategoryAssets,
		Message:  "Asset store unreachable",
		Detail:   "The store backend could not be reached. Check the bucket name, region, and credentials.",
		DocURL:   "https://kinet.dev/docs/errors/K043",
	},

	// ============================================
	// Configuration Errors (K060-K079)
	// ============================================

	"K060": {
		Category: CategoryConfig,
		Message:  "Invalid kinet.json",
		Detail:   "The kinet.json configuration file is malformed.",
		DocURL:   "https://kinet.dev/docs/errors/K060",
	},
	"K061": {
		Category: CategoryConfig,
		Message:  "Not a kinet project",
		Detail:   "The current directory is not a kinet project. Run this command from a directory with kinet.json.",
		DocURL:   "https://kinet.dev/docs/errors/K061",
	},
	"K062": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The configured port number is outside the valid range.",
		DocURL:   "https://kinet.dev/docs/errors/K062",
	},
	"K063": {
		Category: CategoryConfig,
		Message:  "Missing bucket",
		Detail:   "Publishing to S3 requires a bucket, from kinet.json or the --bucket flag.",
		DocURL:   "https://kinet.dev/docs/errors/K063",
	},

	// ============================================
	// CLI Errors (K080-K099)
	// ============================================

	"K080": {
		Category: CategoryCLI,
		Message:  "Dist directory not found",
		Detail:   "The directory to publish does not exist.",
		DocURL:   "https://kinet.dev/docs/errors/K080",
	},
	"K081": {
		Category: CategoryCLI,
		Message:  "Publish failed",
		Detail:   "One or more assets could not be uploaded.",
		DocURL:   "https://kinet.dev/docs/errors/K081",
	},
	"K082": {
		Category: CategoryCLI,
		Message:  "Client bundle not found",
		Detail:   "The configured client bundle path does not exist. The embedded bundle is used when no override is set.",
		DocURL:   "https://kinet.dev/docs/errors/K082",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
