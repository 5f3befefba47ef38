// Package config defines the settings shared by reminder-server and
// reminder-ctl and provides helpers to load, validate and save them in YAML.
//
// Values from a dotenv file and the process environment (LOST_ITEM_*)
// override the YAML file, which keeps secrets such as the Redis password out
// of the settings file.
package config
