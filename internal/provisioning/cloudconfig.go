package provisioning

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

const cloudConfigHeader = "#cloud-config\n"

// CloudConfig is the subset of cloud-init user data generated for launches
type CloudConfig struct {
	SSHPasswordAuth bool              `yaml:"ssh_pwauth"`
	Users           []CloudConfigUser `yaml:"users"`
}

// CloudConfigUser is a user created on first boot
type CloudConfigUser struct {
	Name              string   `yaml:"name"`
	Sudo              string   `yaml:"sudo"`
	Shell             string   `yaml:"shell"`
	SSHAuthorizedKeys []string `yaml:"ssh_authorized_keys"`
}

// GenerateCloudConfig generates cloud-config user-data that creates a sudo user
// allowed to log in with the given public keys
func GenerateCloudConfig(username string, publicKeys ...string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("username is required for cloud-config")
	}
	if len(publicKeys) == 0 {
		return "", fmt.Errorf("at least one public key is required for cloud-config")
	}

	doc := CloudConfig{
		Users: []CloudConfigUser{{
			Name:              username,
			Sudo:              "ALL=(ALL) NOPASSWD:ALL",
			Shell:             "/bin/bash",
			SSHAuthorizedKeys: publicKeys,
		}},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cloud-config: %w", err)
	}
	return cloudConfigHeader + string(out), nil
}
