// Package config loads the command line configuration.
//
// Values are read in viper's precedence order: flags, XPACK_MIGRATOR_*
// environment variables, an optional config file and finally the defaults.
// The loaded struct is checked with validator before it is handed to the
// migration.
package config
