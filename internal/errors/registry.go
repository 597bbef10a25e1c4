package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Route Tree Errors (E201-E209)
	// ============================================

	"E201": {
		Category: CategoryRoute,
		Message:  "Duplicate route id",
		Detail:   "Two route definitions resolve to the same id. Route ids must be unique within a tree.",
	},
	"E202": {
		Category: CategoryRoute,
		Message:  "Route not found",
		Detail:   "No route with the requested id exists in the tree.",
	},
	"E203": {
		Category: CategoryRoute,
		Message:  "Malformed route pattern",
		Detail:   "The route path pattern could not be compiled.",
	},
	"E204": {
		Category: CategoryRoute,
		Message:  "Parent route unresolved",
		Detail:   "A route declares a parent that is not part of the tree.",
	},
	"E205": {
		Category: CategoryRoute,
		Message:  "Invalid root route",
		Detail:   "A route tree must have exactly one root route with no parent.",
	},
	"E206": {
		Category: CategoryRoute,
		Message:  "Ambiguous sibling routes",
		Detail:   "Sibling routes have equally specific patterns; the last declared route wins.",
	},
	"E207": {
		Category: CategoryRoute,
		Message:  "Lazy route failed to load",
		Detail:   "The lazy route definition could not be resolved.",
	},

	// ============================================
	// Search Errors (E210-E219)
	// ============================================

	"E211": {
		Category: CategoryValidation,
		Message:  "Search validation failed",
		Detail:   "A route's search schema rejected the query string.",
	},
	"E212": {
		Category: CategoryValidation,
		Message:  "Path param parse failed",
		Detail:   "A route's param parser rejected the matched path params.",
	},

	// ============================================
	// Loader Errors (E220-E239)
	// ============================================

	"E221": {
		Category: CategoryLoader,
		Message:  "Loader failed",
		Detail:   "The route loader returned an error.",
	},
	"E222": {
		Category: CategoryLoader,
		Message:  "beforeLoad failed",
		Detail:   "The route beforeLoad hook returned an error.",
	},
	"E223": {
		Category: CategoryLoader,
		Message:  "Too many redirects",
		Detail:   "A navigation followed more redirects than allowed.",
	},

	// ============================================
	// Configuration Errors (E240-E249)
	// ============================================

	"E241": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No pathway.json found in the project directory.",
	},
	"E242": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file is not valid JSON.",
	},
	"E243": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or malformed.",
	},

	// ============================================
	// Manifest Errors (E250-E259)
	// ============================================

	"E251": {
		Category: CategoryManifest,
		Message:  "Invalid route manifest",
		Detail:   "The route manifest could not be parsed.",
	},
	"E252": {
		Category: CategoryManifest,
		Message:  "Invalid search check expression",
		Detail:   "A search field check expression failed to compile.",
	},
}

// Lookup returns the template for an error code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
