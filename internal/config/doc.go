// Package config loads the billing tool's configuration.
//
// # Configuration Sources
//
// Values are resolved in the following order, later sources winning:
//
//  1. Default values (Default)
//  2. A YAML file named by BILLING_CONFIG_FILE
//  3. Environment variables
//
// # Environment Variables
//
// Billing settings are named BILLING_<FIELD>; every other section follows
// BILLING_<SECTION>_<FIELD>:
//
//	BILLING_PERCENTILE=p95
//	BILLING_SESSION_TTL=2h
//	BILLING_TIMEZONE=Asia/Baghdad
//	BILLING_SERVER_PORT=8080
//	BILLING_LOGGING_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
