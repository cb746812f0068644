//go:build !windows

package main

import "syscall"

// daemonSysProcAttr detaches the child into its own session so it outlives
// the terminal that started it.
func daemonSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid: true,
	}
}
