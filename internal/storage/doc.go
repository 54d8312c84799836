// Package storage persists the bot's tracking state between restarts:
//   - per-chat judge handles (nicknames)
//   - follow lists per platform
//   - the newest submission id already reported per handle
//
// The state is small, so both drivers write it as a whole.
package storage
