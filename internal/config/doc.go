// Package config resolves the serve command configuration from an optional
// YAML file and the environment. Flags are applied on top by the cmd package.
//
// Example file:
//
//	credentials_file: /etc/meetgate/credentials.json
//	token_file: /var/lib/meetgate/token.json
//	calendar_id: team@example.com
//	metrics:
//	  enabled: true
//	  addr: 127.0.0.1:9090
//	log_level: debug
package config
