package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// CommandPopup shows notifications by running a notify-send compatible
// command: <command> -a <app> -u <urgency> [-i <icon>] <title> <body>.
type CommandPopup struct {
	command string
	appName string
	icon    string
	urgency string
	run     func(name string, args ...string) ([]byte, error)
}

// NewCommandPopup creates a CommandPopup.
func NewCommandPopup(command, appName, icon, urgency string) *CommandPopup {
	return &CommandPopup{
		command: command,
		appName: appName,
		icon:    icon,
		urgency: urgency,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}
}

// Show runs the command once.
func (p *CommandPopup) Show(title, body string) error {
	args := []string{"-a", p.appName, "-u", p.urgency}
	if p.icon != "" {
		args = append(args, "-i", p.icon)
	}
	args = append(args, title, body)
	if out, err := p.run(p.command, args...); err != nil {
		return fmt.Errorf("%s: %w: %s", p.command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// LogPopup writes popups to the log, for hosts without a notification server.
type LogPopup struct {
	log *slog.Logger
}

// NewLogPopup creates a LogPopup.
func NewLogPopup(logger *slog.Logger) *LogPopup {
	return &LogPopup{log: logger}
}

// Show logs the popup at warn level.
func (p *LogPopup) Show(title, body string) error {
	p.log.Warn(title, "body", body)
	return nil
}
