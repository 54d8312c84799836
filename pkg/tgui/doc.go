// Package tgui contains helpers for building Telegram HTML messages.
package tgui
