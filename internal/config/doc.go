// Package config handles configuration loading for lifeos.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from LIFEOS_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/lifeos/lifeos.yaml
//  3. ~/.config/lifeos/lifeos.yaml
//
// Files ending in .toml are parsed as TOML; anything else as YAML. A missing
// file is not an error for callers that fall back to Default().
//
// # Environment Variable Expansion
//
//	auth:
//	  jwt_secret: "${LIFEOS_JWT_SECRET}"
//
// Unset variables expand to the empty string. LIFEOS_DB_PATH overrides
// database.path after parsing.
//
// # Sections
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//	  shutdown_timeout: "5s"
//
//	database:
//	  driver: "sqlite"                # sqlite, postgres
//	  path: "~/.local/share/lifeos/lifeos.db"
//	  dsn: "${DATABASE_URL}"          # postgres only
//	  quota_bytes: 5242880            # 0 disables the quota
//
//	cache:
//	  name: "life-os-v1"              # bump when assets change
//	  origin: "http://localhost:5173" # or dir: "./web"
//	  assets: ["/", "/index.html", "/styles.css", "/app.js"]
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
//	tailscale:
//	  enabled: false
//	  hostname: "lifeos"
//	  auth_key: "${TS_AUTHKEY}"
package config
