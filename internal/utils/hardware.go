package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
)

// InstanceID identifies the machine a server runs on, e.g. "ERP-A1B2C3D4".
// It hashes the first active hardware address and the host name, so the same
// host always reports the same id.
func InstanceID() string {
	host, _ := os.Hostname()
	mac := hardwareAddr()
	if host == "" && mac == "" {
		return "ERP-UNKNOWN"
	}

	hash := sha256.Sum256([]byte(mac + "|" + host))
	return "ERP-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}

func hardwareAddr() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, i := range interfaces {
		if i.Flags&net.FlagUp != 0 && len(i.HardwareAddr) > 0 {
			return i.HardwareAddr.String()
		}
	}
	return ""
}
