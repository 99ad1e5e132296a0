package config

import "runtime"

func defaultSpeechCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "say"
	default:
		return "espeak"
	}
}
