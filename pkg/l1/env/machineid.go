// Package env builds runtime environments for controllers and clients
// from flags, environment variables and config files.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves an ID unique to this machine, falling back to the
// hostname when the machine ID is unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID("transbot")
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "unknown"
}
