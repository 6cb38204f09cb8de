package domain

import "strings"

// Nombres de canal derivados del nombre del team. Discord limita a 100
// caracteres; los canales "normales" no llevan espacios, el voice privado sí.

const maxChannelName = 100

func TextChannelName(team string) string {
	return clampName(strings.ReplaceAll(team, " ", "-"))
}

func VoiceChannelName(team string) string {
	return clampName("🔸" + strings.ReplaceAll(team, " ", ""))
}

func PrivateVoiceChannelName(team string) string {
	return clampName("🔒 " + team)
}

func ChannelNameFor(class ChannelClass, team string) string {
	switch class {
	case ClassVoice:
		return VoiceChannelName(team)
	case ClassPrivateVoice:
		return PrivateVoiceChannelName(team)
	default:
		return TextChannelName(team)
	}
}

func clampName(s string) string {
	if len(s) <= maxChannelName {
		return s
	}
	// corta en frontera de runa para no partir el emoji del prefijo
	rs := []rune(s)
	for len(string(rs)) > maxChannelName {
		rs = rs[:len(rs)-1]
	}
	return string(rs)
}
