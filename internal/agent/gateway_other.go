//go:build !linux

package agent

// TODO: read the routing table on windows/darwin (GetIpForwardTable2, route -n get default).
func defaultGateway() (string, error) {
	return "", errNoGateway
}
