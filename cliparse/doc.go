// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 4100)
  - DatabaseURL: connection string (required; a file path for sqlite)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - MailFrom: sender address for vote-code emails

# CLI Flags

	-p          Server port
	-d          Database URL
	-t          Database type
	--mail-from Sender address

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	MAIL_FROM     → --mail-from

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - DATABASE_TYPE must be sqlite or postgres
*/
package cliparse
