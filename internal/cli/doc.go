// Package cli implements the trainwatch command-line interface.
//
// Each Cobra command parses flags, loads the config and hands off to the
// package that does the work:
//
//	trainwatch watch      - terminal dashboard (dashboard, stream)
//	trainwatch serve      - metrics relay (relay)
//	trainwatch generate   - synthetic training run (generator)
//	trainwatch init       - write .trainwatch.yaml (config)
//	trainwatch version    - build info
//
// # Configuration
//
// Commands load config through loadConfig, which searches for
// .trainwatch.yaml (see config.Find), applies TRAINWATCH_* environment
// overrides, then applies any flags the user set explicitly. Flags the user
// did not touch never override file values.
//
// # Errors
//
// Commands return *errors.Error values with a suggestion. Execute prints
// them and exits non-zero.
package cli
