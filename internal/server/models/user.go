package models

import (
	"fmt"
	"strings"
)

// User is a registered account. Email is unique and never changes.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Demographics Demographics
}

// Demographics are optional attributes used to personalise interpretations.
type Demographics struct {
	AgeRange  string
	Gender    string
	Country   string
	LifeStage string
}

// IsEmpty reports whether no attribute is set.
func (d Demographics) IsEmpty() bool {
	return strings.TrimSpace(d.AgeRange+d.Gender+d.Country+d.LifeStage) == ""
}

// Summary renders the attributes as a single line for prompt input.
func (d Demographics) Summary() string {
	if d.IsEmpty() {
		return "No demographic information provided."
	}
	return fmt.Sprintf("Age Range: %s, Gender: %s, Country/Cultural Background: %s, Life Stage: %s",
		orNotSpecified(d.AgeRange), orNotSpecified(d.Gender), orNotSpecified(d.Country), orNotSpecified(d.LifeStage))
}

func orNotSpecified(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "Not specified"
	}
	return s
}
