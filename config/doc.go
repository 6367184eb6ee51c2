// Package config builds the filegate server configuration.
//
// Load layers four sources with viper, each overriding the one before:
// built-in defaults, YAML files (merged in the order given), FILEGATE_*
// environment variables, and command-line flags the user actually set. The
// result is checked with go-playground/validator plus a few cross-field rules
// before it is returned.
//
// Environment variable names are the key path upper-cased with dots turned
// into underscores, so storage.fail_fast_on_startup is read from
// FILEGATE_STORAGE_FAIL_FAST_ON_STARTUP.
//
// A minimal file for the MinIO backend:
//
//	storage:
//	  backend: minio
//	  bucket: files
//	minio:
//	  endpoint: minio.internal:9000
//	  access_key: filegate
//	  secret_key: change-me
//
// Commands share the loaded value through WithContext and FromContext.
package config
