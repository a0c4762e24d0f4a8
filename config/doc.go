// Package config loads service configuration with Viper.
//
// Sources, lowest precedence first:
//   - the base file, config.yml or appsettings.json, found under cmd/<service>,
//     config/<service>, config or the working directory;
//   - the environment overlay next to it, e.g. appsettings.Production.json,
//     selected by ENVIRONMENT, ASPNETCORE_ENVIRONMENT or the base file;
//   - environment variables, after a .env file is loaded with godotenv.
//
// DATABASE_MAX_RETRIES overrides database.max_retries and
// CONNECTIONSTRINGS__ECOMMERCECONNECTION overrides
// ConnectionStrings.eCommerceConnection.
//
//	cfg, err := config.Load[OrdersConfig]("orders")
package config
