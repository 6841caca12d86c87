package config

import "strings"

// parseModelMapping reads "alias:model,alias2:model2". Malformed pairs are skipped.
func parseModelMapping(raw string) map[string]string {
	mapping := make(map[string]string)
	if raw == "" {
		return mapping
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		source := strings.TrimSpace(parts[0])
		target := strings.TrimSpace(parts[1])
		if source != "" && target != "" {
			mapping[source] = target
		}
	}
	return mapping
}

// MapModel resolves an alias to a model name. Unknown names pass through.
func (c *Config) MapModel(model string) string {
	if mapped, ok := c.modelMapping[model]; ok {
		return mapped
	}
	return model
}

// Aliases returns a copy of the alias table.
func (c *Config) Aliases() map[string]string {
	aliases := make(map[string]string, len(c.modelMapping))
	for alias, model := range c.modelMapping {
		aliases[alias] = model
	}
	return aliases
}
