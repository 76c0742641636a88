package session

import (
	"fmt"
	"strings"
)

// Role is the job the candidate is interviewing for.
type Role string

const (
	RoleSoftwareEngineer Role = "Software Engineer"
	RoleDataAnalyst      Role = "Data Analyst"
	RoleSalesAssociate   Role = "Sales Associate"
	RoleProductManager   Role = "Product Manager"
)

// Level is the candidate's experience level. It only steers question
// difficulty.
type Level string

const (
	LevelIntern Level = "Intern"
	LevelJunior Level = "Junior"
	LevelMid    Level = "Mid-level"
	LevelSenior Level = "Senior"
)

// Roles lists the supported interview roles in menu order.
func Roles() []Role {
	return []Role{
		RoleSoftwareEngineer,
		RoleDataAnalyst,
		RoleSalesAssociate,
		RoleProductManager,
	}
}

// Levels lists the supported experience levels in menu order.
func Levels() []Level {
	return []Level{LevelIntern, LevelJunior, LevelMid, LevelSenior}
}

// ParseRole matches s against the supported roles, ignoring case.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q (choose one of %v)", s, Roles())
}

// ParseLevel matches s against the supported levels, ignoring case.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels() {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown level %q (choose one of %v)", s, Levels())
}

// Config selects how a session is framed. It may change between turns;
// the system prompt is rebuilt from it on every call, so a change only
// affects future turns.
type Config struct {
	Role       Role  `json:"role"`
	Level      Level `json:"level"`
	VoiceReply bool  `json:"voice_reply"`
}

// DefaultConfig mirrors the stock menu selection.
func DefaultConfig() Config {
	return Config{Role: RoleDataAnalyst, Level: LevelJunior}
}
