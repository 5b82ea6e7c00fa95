// Package config handles loading and validating hub configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with AWESOMATION_* environment variables (envconfig)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (JWT secret, OAuth client secrets, broker passwords)
//     should be set via environment variables or a .env file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Hub.Name)
package config
