package models

import (
	"fmt"
	"strings"
)

// Platform identifies a social network a post is previewed and scored for.
type Platform string

const (
	Twitter  Platform = "twitter"
	Facebook Platform = "facebook"
	LinkedIn Platform = "linkedin"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{Twitter, Facebook, LinkedIn}

// ParsePlatform validates a platform identifier as sent on the wire.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

func (p Platform) Valid() bool {
	switch p {
	case Twitter, Facebook, LinkedIn:
		return true
	}
	return false
}

// DisplayName is the capitalized name used in prompts and the CLI.
func (p Platform) DisplayName() string {
	switch p {
	case Twitter:
		return "Twitter"
	case Facebook:
		return "Facebook"
	case LinkedIn:
		return "Linkedin"
	}
	return string(p)
}
