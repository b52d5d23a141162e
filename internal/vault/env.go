package vault

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/vaultsync/vaultsync/internal/utils"
)

// ToolEnv builds the environment handed to the sync tool: the given process
// environment, overlaid with the KEY=VALUE pairs of envFile when set.
func ToolEnv(environ []string, envFile string) (map[string]string, error) {
	env := utils.EnvMap(environ)
	if envFile == "" {
		return env, nil
	}

	overrides, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", envFile, err)
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env, nil
}
