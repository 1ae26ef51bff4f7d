// Package config holds the runtime configuration for the monitoring
// pipeline: defaults, the flat Config struct populated from CLI flags,
// and the YAML monitor file carrying seeds, label sets, and tunables.
package config
