package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const templateHeader = `# podctl configuration
# max_payload_bytes bounds framed stream payloads and dump files.
# max_buffer_bytes bounds buffers built by "podctl demo"; 0 means unlimited.
`

// Template renders the default configuration as TOML.
func Template() (string, error) {
	body, err := toml.Marshal(DefaultPodctlConfig())
	if err != nil {
		return "", fmt.Errorf("config template render failed: %w", err)
	}
	return templateHeader + string(body), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
