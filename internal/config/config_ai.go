package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.MaxTokens == nil {
		opCfg.MaxTokens = &c.AI.MaxTokens
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetEnhanceConfig returns the AI configuration for enhance operations with fallback to global config
func (c *Config) GetEnhanceConfig() OperationAIConfig {
	config := c.AI.Enhance

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply enhance-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.EnhanceJob == "" {
		config.CustomPrompts.SystemPrompts.EnhanceJob = c.AI.CustomPrompts.SystemPrompts.EnhanceJob
	}
	if config.CustomPrompts.UserPrompts.EnhanceJob == "" {
		config.CustomPrompts.UserPrompts.EnhanceJob = c.AI.CustomPrompts.UserPrompts.EnhanceJob
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.EnhanceJobFile == "" {
		config.CustomPrompts.SystemPrompts.EnhanceJobFile = c.AI.CustomPrompts.SystemPrompts.EnhanceJobFile
	}
	if config.CustomPrompts.UserPrompts.EnhanceJobFile == "" {
		config.CustomPrompts.UserPrompts.EnhanceJobFile = c.AI.CustomPrompts.UserPrompts.EnhanceJobFile
	}

	return config
}

// GetRefineConfig returns the AI configuration for refine operations with fallback to global config
func (c *Config) GetRefineConfig() OperationAIConfig {
	config := c.AI.Refine

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply refine-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.RefineJob == "" {
		config.CustomPrompts.SystemPrompts.RefineJob = c.AI.CustomPrompts.SystemPrompts.RefineJob
	}
	if config.CustomPrompts.UserPrompts.RefineJob == "" {
		config.CustomPrompts.UserPrompts.RefineJob = c.AI.CustomPrompts.UserPrompts.RefineJob
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.RefineJobFile == "" {
		config.CustomPrompts.SystemPrompts.RefineJobFile = c.AI.CustomPrompts.SystemPrompts.RefineJobFile
	}
	if config.CustomPrompts.UserPrompts.RefineJobFile == "" {
		config.CustomPrompts.UserPrompts.RefineJobFile = c.AI.CustomPrompts.UserPrompts.RefineJobFile
	}

	return config
}

// GetLoadedEnhancePrompts returns a copy of the loaded prompts for enhance operation
func (c *Config) GetLoadedEnhancePrompts() OperationLoadedPrompts {
	return loadedPrompts.Enhance
}

// GetLoadedRefinePrompts returns a copy of the loaded prompts for refine operation
func (c *Config) GetLoadedRefinePrompts() OperationLoadedPrompts {
	return loadedPrompts.Refine
}

// GetLoadedGlobalPrompts returns a copy of the loaded global prompts
func (c *Config) GetLoadedGlobalPrompts() LoadedPrompts {
	return loadedPrompts.Global
}
