// Package config loads the careguide-server configuration.
//
// Sources, lowest precedence first:
//   - built-in defaults (port 3000, 6s upstream timeout, metrics on /metrics)
//   - an optional YAML file (--config)
//   - environment: PORT, GUIDELINES_API_BASE; the bearer token is read from
//     the variable named by upstream.key_env (default GUIDELINES_API_KEY)
//   - CLI flags bound into the same viper instance
//
// Load(path, v) applies the layers in that order, then validates.
// Watch(ctx, path, v, fn) reloads the file on change via fsnotify.
package config
