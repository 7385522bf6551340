package schedule

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/robfig/cron/v3"
)

const cronMarker = "# kyv-record-metrics"

// Tab reads and replaces the user's crontab.
type Tab interface {
	Read() (string, error)
	Write(content string) error
}

// SystemTab is the crontab(1) of the current user.
type SystemTab struct{}

func (SystemTab) Read() (string, error) {
	out, err := exec.Command("crontab", "-l").Output()
	if err != nil {
		// crontab -l exits non-zero when the user has no crontab yet
		return "", nil
	}
	return string(out), nil
}

func (SystemTab) Write(content string) error {
	cmd := exec.Command("crontab", "-")
	cmd.Stdin = strings.NewReader(content)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("crontab: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ValidateCrontabSpec accepts the specs crontab(5) understands: five fields
// or a predefined @descriptor. @every is a cron-library extension only.
func ValidateCrontabSpec(spec string) error {
	if strings.HasPrefix(spec, "@every") {
		return fmt.Errorf("invalid schedule %q: @every is not supported by crontab", spec)
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// CrontabLine renders the marked entry running command on spec.
func CrontabLine(spec string, command []string) string {
	quoted := make([]string, len(command))
	for i, a := range command {
		quoted[i] = shellQuote(a)
	}
	return fmt.Sprintf("%s %s %s", spec, strings.Join(quoted, " "), cronMarker)
}

// InstallCrontab adds (or replaces) the record-metrics entry.
func InstallCrontab(tab Tab, spec string, command []string) error {
	if err := ValidateCrontabSpec(spec); err != nil {
		return err
	}
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	existing, err := tab.Read()
	if err != nil {
		return err
	}
	content := withoutMarker(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += CrontabLine(spec, command) + "\n"
	return tab.Write(content)
}

// UninstallCrontab removes the record-metrics entry, keeping other lines.
func UninstallCrontab(tab Tab) error {
	existing, err := tab.Read()
	if err != nil {
		return err
	}
	if !strings.Contains(existing, cronMarker) {
		return nil
	}
	return tab.Write(withoutMarker(existing))
}

// InstalledCrontabLine returns the installed entry, if any.
func InstalledCrontabLine(tab Tab) (string, bool, error) {
	existing, err := tab.Read()
	if err != nil {
		return "", false, err
	}
	for _, line := range strings.Split(existing, "\n") {
		if strings.Contains(line, cronMarker) {
			return line, true, nil
		}
	}
	return "", false, nil
}

// IsCrontabInstalled reports whether the record-metrics entry is present.
func IsCrontabInstalled(tab Tab) bool {
	_, ok, err := InstalledCrontabLine(tab)
	return err == nil && ok
}

func withoutMarker(content string) string {
	lines := strings.Split(content, "\n")
	filtered := lines[:0]
	for _, line := range lines {
		if !strings.Contains(line, cronMarker) {
			filtered = append(filtered, line)
		}
	}
	return strings.Join(filtered, "\n")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>*?#()[]{}~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
