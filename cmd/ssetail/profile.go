// Copyright 2026 Commonwealth Scientific and Industrial Research Organisation (CSIRO) ABN 41 687 119 230
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const configFileDir = "ssetail"
const configFileName = "config.yaml"

// Profile is a named, reusable endpoint: a base URL plus headers sent on
// every connect attempt made against it.
type Profile struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Config is the on-disk shape of the profile store.
type Config struct {
	Version       string    `yaml:"version"`
	ActiveProfile string    `yaml:"active-profile"`
	Profiles      []Profile `yaml:"profiles"`
}

func getConfigDir(createIfNoExist bool) (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot find the user configuration directory: %w", err)
	}
	dir := filepath.Join(userConfigDir, configFileDir)
	if createIfNoExist {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("could not create configuration directory %s: %w", dir, err)
		}
	}
	return dir, nil
}

func getConfigFilePath() (string, error) {
	dir, err := getConfigDir(true)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func readConfig() (*Config, error) {
	path, err := getConfigFilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Version: "v1"}, nil
		}
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("problems parsing config file %s: %w", path, err)
	}
	return &cfg, nil
}

func writeConfig(cfg *Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	path, err := getConfigFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, fs.FileMode(0600))
}

func upsertProfile(p Profile, makeActive bool) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	found := false
	for i, existing := range cfg.Profiles {
		if existing.Name == p.Name {
			cfg.Profiles[i] = p
			found = true
			break
		}
	}
	if !found {
		cfg.Profiles = append(cfg.Profiles, p)
	}
	if makeActive || cfg.ActiveProfile == "" {
		cfg.ActiveProfile = p.Name
	}
	return writeConfig(cfg)
}

func findProfile(name string) (*Profile, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = cfg.ActiveProfile
	}
	if name == "" {
		return nil, nil
	}
	for i, p := range cfg.Profiles {
		if p.Name == name {
			return &cfg.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("unknown profile %q", name)
}

func setActiveProfile(name string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	found := false
	for _, p := range cfg.Profiles {
		if p.Name == name {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown profile %q", name)
	}
	cfg.ActiveProfile = name
	return writeConfig(cfg)
}
