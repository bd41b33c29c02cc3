// Package commands defines the hamsearch CLI.
//
// Commands
//
//   - serve       Run the Discord bot and/or the HTTP API until interrupted
//   - lookup      Print the registry record for a callsign
//   - stats       Print QRZ logbook statistics for a callsign
//   - distance    Print the great-circle distance between two callsigns
//   - conditions  Print the band conditions image URL
//
// # Implementation
//
// The root command loads the TOML config, builds the logger and wires the
// command service with its audit recorder before any subcommand runs. One-shot
// commands go through the same service as the bot, so they are audited too.
package commands
