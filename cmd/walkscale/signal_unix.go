//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifySignals subscribes ch to the signals that stop a run: SIGINT and
// SIGTERM.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
