/*
Package log provides structured logging for etcdmate built on zerolog.

The package exposes a global logger configured once at startup and
child-logger helpers that attach common fields:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("session")
	logger.Info().Str("profile", "prod").Msg("connection established")

Interactive CLI runs use the console writer; serve mode emits JSON so a
desktop frontend or log shipper can consume it.
*/
package log
