// Package config provides configuration management for radirec.
//
// Settings are stored as a small JSON record (compatible with the
// classic config.json layout: mail, password, template) read at
// startup and written back at shutdown.
//
//	settings, err := config.Load("config.json")
//	...
//	defer settings.Save("config.json")
//
// Use DefaultSettings() for sensible defaults: recording into the
// working directory with a "{DATE}_{TIME}_{TITLE}" file name template.
package config
