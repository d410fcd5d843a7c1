package tts

import (
	"fmt"
	"os"
	"runtime"
)

type EngineType string

const (
	EngineTypeMock   EngineType = "mock"
	EngineTypeESpeak EngineType = "espeak"
	EngineTypeSAPI   EngineType = "sapi" // Windows only
	EngineTypeSay    EngineType = "say"  // macOS only
	EngineTypeGoogle EngineType = "google"
	EngineTypeAuto   EngineType = "auto" // Automatically choose best for platform
)

func (e EngineType) String() string {
	return string(e)
}

// NewEngine creates a new TTS engine based on the provided config. The
// resolved engine type is returned alongside so callers can key caches on it.
func NewEngine(config Config) (Engine, EngineType, error) {
	engineType := EngineType(config.Type)
	if engineType == "" || engineType == EngineTypeAuto {
		engineType = getBestEngineForPlatform()
	}
	if config.Rate <= 0 {
		config.Rate = DefaultRate
	}

	var (
		engine Engine
		err    error
	)

	switch engineType {
	case EngineTypeMock:
		engine = NewMockEngine(os.Stdout)

	case EngineTypeGoogle:
		engine, err = newGoogleEngine(config)

	case EngineTypeESpeak:
		engine, err = newESpeakEngine(config)

	case EngineTypeSAPI:
		if runtime.GOOS != "windows" {
			return nil, engineType, fmt.Errorf("%w: SAPI engine only supports Windows", ErrUnsupportedEngine)
		}
		engine, err = newSAPIEngine(config)

	case EngineTypeSay:
		if runtime.GOOS != "darwin" {
			return nil, engineType, fmt.Errorf("%w: say engine only supports macOS", ErrUnsupportedEngine)
		}
		engine, err = newSayEngine(config)

	default:
		return nil, engineType, fmt.Errorf("%w: %s", ErrUnsupportedEngine, config.Type)
	}

	if err != nil {
		return nil, engineType, err
	}

	if err := engine.SetRate(config.Rate); err != nil {
		return nil, engineType, err
	}
	if config.Voice != "" {
		if err := engine.SetVoice(config.Voice); err != nil {
			return nil, engineType, err
		}
	}

	return engine, engineType, nil
}

// getBestEngineForPlatform returns the recommended engine for the current platform
func getBestEngineForPlatform() EngineType {
	if hasGoogleCredentials() {
		return EngineTypeGoogle
	}

	switch runtime.GOOS {
	case "windows":
		return EngineTypeSAPI
	case "darwin":
		return EngineTypeSay
	default:
		return EngineTypeESpeak // Cross-platform fallback
	}
}

// AvailableEngines returns engines available on the current platform
func AvailableEngines() []EngineType {
	engines := []EngineType{EngineTypeMock, EngineTypeESpeak}

	if hasGoogleCredentials() {
		engines = append(engines, EngineTypeGoogle)
	}

	switch runtime.GOOS {
	case "windows":
		engines = append(engines, EngineTypeSAPI)
	case "darwin":
		engines = append(engines, EngineTypeSay)
	}

	return engines
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}
