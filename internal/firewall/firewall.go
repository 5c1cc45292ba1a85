// Package firewall provisions host firewall rules so LAN peers can reach
// the service.
package firewall

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/lansend/lansend/internal/logger"
)

// OpenPorts allows inbound TCP on the web and fast transfer ports. On Linux
// and macOS this is a no-op: neither blocks LAN inbound by default. On
// Windows it installs netsh rules across all profiles, which is what makes
// the service reachable from phones on public Wi-Fi.
func OpenPorts(webPort, fastPort int) error {
	if runtime.GOOS != "windows" {
		logger.Debug("Firewall provisioning skipped on %s", runtime.GOOS)
		return nil
	}

	for _, port := range []int{webPort, fastPort} {
		name := fmt.Sprintf("lansend-%d", port)

		// Delete first so repeated startups do not stack duplicate rules.
		_ = exec.Command("netsh", "advfirewall", "firewall", "delete", "rule",
			fmt.Sprintf("name=%s", name)).Run()

		out, err := exec.Command("netsh", "advfirewall", "firewall", "add", "rule",
			fmt.Sprintf("name=%s", name),
			"dir=in", "action=allow", "protocol=TCP",
			fmt.Sprintf("localport=%d", port),
			"profile=any").CombinedOutput()
		if err != nil {
			return fmt.Errorf("add firewall rule for port %d: %w (%s)", port, err, out)
		}
		logger.Info("Firewall rule installed for port %d", port)
	}
	return nil
}
