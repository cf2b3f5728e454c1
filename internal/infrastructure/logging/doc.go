// Package logging configures structured logging for Door Core on top of
// log/slog.
//
// Every record carries service and version fields so Door Core lines
// survive aggregation alongside other services. Output format, level
// and destination come from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Components derive their own loggers with With:
//
//	log := logging.New(cfg.Logging, version)
//	mqttLog := log.With("component", "mqtt")
//
// Door and actuator identifiers are fine to log; credentials, JWT
// secrets and tokens never are.
package logging
