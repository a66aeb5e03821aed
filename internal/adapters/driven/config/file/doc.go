// Package file provides a file-based implementation of driven.ConfigStore.
// Configuration is persisted as TOML and loaded once per process.
package file
