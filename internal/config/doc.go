// Package config loads chanwatch's TOML configuration.
//
// # Configuration Discovery
//
// Load resolves the file as follows:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/chanwatch/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. Fields that are missing, blank or non-positive keep their defaults
//
// # TOML Format
//
//	api_host = "a.4cdn.org"
//	boards_host = "boards.4chan.org"
//	file_host = "i.4cdn.org"
//	static_host = "s.4cdn.org"
//	https = true
//	user_agent = "chanwatch/0.1"
//	request_timeout = 10      # seconds
//	requests_per_second = 1   # API courtesy limit
//	poll_seconds = 10
//	workers = 4               # concurrent thread fetches when expanding
//	redis_url = ""            # empty disables the archive
//	log_level = "info"
//	log_file = "~/.local/share/chanwatch/chanwatch.log"
//
// Every field is optional. Tilde expansion applies to the config path and
// log_file.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, and TOML parse errors. A missing file is not an error.
//
// Command-line flags are applied by the caller on top of the loaded Config;
// the package holds no global state.
package config
