package config

import "time"

// NewProviderForTest creates a Provider config for testing purposes
func NewProviderForTest(apiKey, domain, baseURL string, maxRetries int, baseDelay time.Duration) *Provider {
	return &Provider{
		apiKey:     apiKey,
		domain:     domain,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// NewRulesForTest creates a Rules config for testing purposes
func NewRulesForTest(path string) *Rules {
	return &Rules{path: path}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{backend: backend, projectID: projectID}
}
