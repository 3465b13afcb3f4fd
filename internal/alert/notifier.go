package alert

import (
	"context"
	"fmt"

	"github.com/platewise/cookalong/internal/domain"
	"github.com/platewise/cookalong/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*TermNotifier)(nil)

// ANSI escape codes for terminal formatting.
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	cyan  = "\033[36m"
)

// PrintFunc is a function used to print formatted output. Matches the
// signature of both fmt.Printf and the display's Printf.
type PrintFunc func(format string, a ...interface{})

// TermNotifier writes notifications to the terminal with ANSI
// formatting.
type TermNotifier struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewTermNotifier creates a terminal notifier. If printFn is nil,
// fmt.Printf is used.
func NewTermNotifier(log *logger.Logger, printFn PrintFunc) *TermNotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &TermNotifier{log: log.Named("alert"), printFn: printFn}
}

// Notify prints a normal notification.
func (n *TermNotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.printFn("%s%s%s%s", cyan, bold, message, reset)
	return nil
}

// NotifyUrgent prints an urgent notification in bold red.
func (n *TermNotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s%s%s%s", red, bold, message, reset)
	return nil
}
