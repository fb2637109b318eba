package config

import (
	"fmt"
	"os"
)

const starterConfig = `# affgen configuration
database:
  path: affgen.db

paths:
  templates: templates
  assets: assets
  uploads: uploads
  output: builds

deploy:
  host: deploy.example.com
  user: deploy
  key_path: ~/.ssh/id_ed25519
  web_root: /var/www
  keep_releases: 3

generation:
  base_url: https://api.openai.com/v1
  api_key_env: GENERATION_API_KEY
  model: gpt-4o-mini
  workers: 5

daemon:
  sweep_interval: 15m
  freshness_threshold: 24h
  metrics_addr: ":9109"
  nats:
    enabled: false
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
