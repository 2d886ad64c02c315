// Package config handles loading and validating configuration from YAML
// files and environment variables: listen address, backend pool with
// weights, strategy selection, health check probing, sticky session
// window, and proxy retry policy.
package config
