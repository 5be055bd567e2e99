// ABOUTME: Threat classification derived from signature detection names
// ABOUTME: Maps names like Win.Trojan.Agent-123 to threat type and severity

package types

import "strings"

// ThreatType represents the category of malware threat.
type ThreatType int

const (
	// ThreatTypeUnknown represents an unknown threat type.
	ThreatTypeUnknown ThreatType = iota
	// ThreatTypeMalware represents generic malware.
	ThreatTypeMalware
	// ThreatTypeTrojan represents trojan malware.
	ThreatTypeTrojan
	// ThreatTypeVirus represents a virus.
	ThreatTypeVirus
	// ThreatTypeWorm represents a worm.
	ThreatTypeWorm
	// ThreatTypeRansomware represents ransomware.
	ThreatTypeRansomware
	// ThreatTypeAdware represents adware.
	ThreatTypeAdware
	// ThreatTypeSpyware represents spyware.
	ThreatTypeSpyware
	// ThreatTypePUP represents a potentially unwanted program.
	ThreatTypePUP
	// ThreatTypeTestFile represents a test file (e.g., EICAR).
	ThreatTypeTestFile
)

// String returns the string representation of the threat type.
func (tt ThreatType) String() string {
	switch tt {
	case ThreatTypeMalware:
		return "malware"
	case ThreatTypeTrojan:
		return "trojan"
	case ThreatTypeVirus:
		return "virus"
	case ThreatTypeWorm:
		return "worm"
	case ThreatTypeRansomware:
		return "ransomware"
	case ThreatTypeAdware:
		return "adware"
	case ThreatTypeSpyware:
		return "spyware"
	case ThreatTypePUP:
		return "pup"
	case ThreatTypeTestFile:
		return "testfile"
	default:
		return "unknown"
	}
}

// Severity represents the severity level of a threat.
type Severity int

const (
	// SeverityUnknown represents an unknown severity.
	SeverityUnknown Severity = iota
	// SeverityLow represents a low severity threat.
	SeverityLow
	// SeverityMedium represents a medium severity threat.
	SeverityMedium
	// SeverityHigh represents a high severity threat.
	SeverityHigh
	// SeverityCritical represents a critical severity threat.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ThreatTypeFromDetection maps a detection name to a threat type.
func ThreatTypeFromDetection(detection string) ThreatType {
	if detection == "" {
		return ThreatTypeUnknown
	}

	upper := strings.ToUpper(detection)

	switch {
	case strings.Contains(upper, "TROJAN"):
		return ThreatTypeTrojan
	case strings.Contains(upper, "RANSOMWARE"):
		return ThreatTypeRansomware
	case strings.Contains(upper, "VIRUS"):
		return ThreatTypeVirus
	case strings.Contains(upper, "WORM"):
		return ThreatTypeWorm
	case strings.Contains(upper, "ADWARE"):
		return ThreatTypeAdware
	case strings.Contains(upper, "PUA"), strings.Contains(upper, "PUP"):
		return ThreatTypePUP
	case strings.Contains(upper, "SPYWARE"):
		return ThreatTypeSpyware
	case strings.Contains(upper, "EICAR"), strings.Contains(upper, "TEST"):
		return ThreatTypeTestFile
	default:
		return ThreatTypeMalware
	}
}

// SeverityFromDetection maps a detection name to a severity level.
// Detection names follow patterns like: Win.Trojan.Agent-123, Linux.Ransomware.Cryptolocker
func SeverityFromDetection(detection string) Severity {
	if detection == "" {
		return SeverityUnknown
	}

	upper := strings.ToUpper(detection)

	// Critical: Trojans, Ransomware
	if strings.Contains(upper, "TROJAN") || strings.Contains(upper, "RANSOMWARE") {
		return SeverityCritical
	}

	// High: Viruses, Worms
	if strings.Contains(upper, "VIRUS") || strings.Contains(upper, "WORM") {
		return SeverityHigh
	}

	// Medium: Adware, PUA/PUP
	if strings.Contains(upper, "ADWARE") || strings.Contains(upper, "PUA") || strings.Contains(upper, "PUP") {
		return SeverityMedium
	}

	// Low: Heuristics, Test files
	if strings.Contains(upper, "HEURISTICS") || strings.Contains(upper, "EICAR") || strings.Contains(upper, "TEST") {
		return SeverityLow
	}

	return SeverityMedium
}
