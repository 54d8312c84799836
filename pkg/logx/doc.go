// Package logx provides a small structured logging facade over zerolog
// with runtime-reconfigurable console and file sinks.
package logx
