package sandbox

import (
	"regexp"
	"strings"
)

// blockedScriptPatterns are checked against generated scripts before any run.
// Scripts come out of a language model; a bad generation must never be able
// to wreck the host even when the Docker runner is unavailable.
var blockedScriptPatterns = []*regexp.Regexp{
	// Destructive recursive deletion
	regexp.MustCompile(`(?i)\brm\s+-rf?\b`),
	regexp.MustCompile(`(?i)\brm\s+(-[a-z]*\s+)*--no-preserve-root`),
	regexp.MustCompile(`(?i)shutil\.rmtree\s*\(\s*['"]/`),
	regexp.MustCompile(`(?i)os\.remove\s*\(\s*['"]/(etc|boot|usr|bin|sbin)`),

	// Disk and filesystem manipulation
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)\bfdisk\b`),
	regexp.MustCompile(`(?i)\bdd\s+.*\bof\s*=\s*/dev/`),
	regexp.MustCompile(`(?i)open\s*\(\s*['"]/dev/(sd[a-z]|hd[a-z]|nvme)`),

	// System state changes
	regexp.MustCompile(`(?i)\bshutdown\b`),
	regexp.MustCompile(`(?i)\breboot\b`),
	regexp.MustCompile(`(?i)\bpoweroff\b`),
	regexp.MustCompile(`(?i)systemctl\s+(halt|poweroff|reboot|shutdown)`),

	// Fork bombs
	regexp.MustCompile(`:\s*\(\s*\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;`),
	regexp.MustCompile(`(?i)while\s+True\s*:\s*os\.fork`),

	// Credential and system file access
	regexp.MustCompile(`(?i)(/etc/shadow|/etc/passwd)`),
	regexp.MustCompile(`(?i)open\s*\(\s*['"].*\.ssh/`),

	// Download piped straight into a shell
	regexp.MustCompile(`(?i)\bcurl\s+.*\|\s*(ba)?sh`),
	regexp.MustCompile(`(?i)\bwget\s+.*\|\s*(ba)?sh`),
}

var blockedScriptDescriptions = map[int]string{
	0:  "recursive file deletion",
	1:  "rm with --no-preserve-root flag",
	2:  "rmtree on an absolute system path",
	3:  "removal of system files",
	4:  "filesystem creation",
	5:  "disk partitioning",
	6:  "raw write to a disk device",
	7:  "open on a raw disk device",
	8:  "shutdown command",
	9:  "reboot command",
	10: "poweroff command",
	11: "systemctl power state change",
	12: "fork bomb pattern",
	13: "fork loop",
	14: "access to system credential files",
	15: "access to SSH keys",
	16: "curl piped to shell",
	17: "wget piped to shell",
}

// GuardScript checks whether a generated script is safe to run.
// Returns a reason string if the script is blocked, empty string if allowed.
func GuardScript(script string) string {
	script = strings.TrimSpace(script)
	if script == "" {
		return "empty script is not allowed"
	}

	for i, pattern := range blockedScriptPatterns {
		if pattern.MatchString(script) {
			desc := blockedScriptDescriptions[i]
			if desc == "" {
				desc = "dangerous pattern"
			}
			return desc
		}
	}

	if strings.Contains(script, "\x00") {
		return "null byte detected"
	}

	return ""
}

// IsScriptSafe returns true if the script passes the guard.
func IsScriptSafe(script string) bool {
	return GuardScript(script) == ""
}
