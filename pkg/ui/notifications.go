package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"xscraper/pkg/config"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=xscraper", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends a toast through PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	escape := func(s string) string { return strings.ReplaceAll(s, "'", "''") }
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName('text')
		$text.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('xscraper').Show($toast)
	`, escape(title), escape(message))
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier reports run outcomes on the console and, when configured, as
// desktop notifications
type Notifier struct {
	sender NotificationSender
	cfg    config.NotificationConfig
}

// NewNotifier creates a notifier. A notification type of "desktop" also
// sends platform notifications; "terminal" only prints.
func NewNotifier(cfg config.NotificationConfig) *Notifier {
	n := &Notifier{cfg: cfg}
	if cfg.NotificationType != "desktop" {
		return n
	}
	switch runtime.GOOS {
	case "linux":
		n.sender = &LinuxNotificationSender{}
	case "darwin":
		n.sender = &MacOSNotificationSender{}
	case "windows":
		n.sender = &WindowsNotificationSender{}
	}
	return n
}

// WithSender replaces the platform sender
func (n *Notifier) WithSender(s NotificationSender) *Notifier {
	n.sender = s
	return n
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// Notifications are best effort
		_ = n.sender.Send(title, message)
	}
}

// Completed announces a run that ended normally
func (n *Notifier) Completed(target, summary string) {
	if !n.cfg.Enabled || !n.cfg.OnComplete {
		return
	}
	printf(false, "\n%s: %s\n", Green("Collection complete"), Green(target+" - "+summary))
	n.send("Collection complete", target+" - "+summary)
}

// Exhausted announces a feed that ran dry before the limit
func (n *Notifier) Exhausted(target, summary string) {
	if !n.cfg.Enabled || !n.cfg.OnExhausted {
		return
	}
	printf(false, "\n%s: %s\n", Yellow("Feed exhausted"), Yellow(target+" - "+summary))
	n.send("Feed exhausted", target+" - "+summary)
}

// Failed announces a failed run
func (n *Notifier) Failed(target string, err error) {
	if !n.cfg.Enabled || !n.cfg.OnError {
		return
	}
	msg := target
	if err != nil {
		msg = fmt.Sprintf("%s - %v", target, err)
	}
	printf(true, "\n%s: %s\n", Red("Collection failed"), Red(msg))
	n.send("Collection failed", msg)
}
