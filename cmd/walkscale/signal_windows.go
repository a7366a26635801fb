//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals subscribes ch to Ctrl+C. Windows has no SIGTERM.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
