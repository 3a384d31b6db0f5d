package vpc

import "strconv"

// NormalizeProtocol converts AWS numeric protocol strings to human-readable names.
func NormalizeProtocol(protocol string) string {
	switch protocol {
	case "-1":
		return "All"
	case "6":
		return "TCP"
	case "17":
		return "UDP"
	case "1":
		return "ICMP"
	case "58":
		return "ICMPv6"
	default:
		return protocol
	}
}

// PortRange renders a rule's port span. -1 on either end means every port,
// which is also how ICMP rules without a type are reported.
func PortRange(from, to int32) string {
	switch {
	case from == -1 || to == -1:
		return "All"
	case from == to:
		return strconv.Itoa(int(from))
	default:
		return strconv.Itoa(int(from)) + "-" + strconv.Itoa(int(to))
	}
}
